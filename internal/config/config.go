package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort = 2333
	defaultEnv  = "development"

	defaultAIProvider  = "gemini"
	defaultGeminiModel = "gemini-2.0-flash-exp"

	defaultRateLimit         = 10
	defaultRateWindowSeconds = 60

	defaultCacheMaxEntries = 100
	defaultCacheTTLMinutes = 60
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	AllowedOrigins []string        `yaml:"allowed_origins"`
	AI             AIConfig        `yaml:"ai"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Cache          CacheConfig     `yaml:"cache"`
}

// AIConfig describes the external judgment provider.
type AIConfig struct {
	Provider        string  `yaml:"provider"` // "gemini" | "openai" | "anthropic"
	APIKey          string  `yaml:"api_key"`
	Endpoint        string  `yaml:"endpoint"` // optional override, used by tests
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	MaxAttempts     int     `yaml:"max_attempts"`
}

type RateLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLMinutes int `yaml:"ttl_minutes"`
}

// Load reads the YAML config at configPath. A missing file is not an
// error: the service can run entirely on defaults plus environment
// variables.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyEnv(&cfg)
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return nil, fmt.Errorf("invalid ai.temperature %v in %q, expected 0-2", cfg.AI.Temperature, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		AI: AIConfig{
			Provider:        defaultAIProvider,
			Model:           defaultGeminiModel,
			Temperature:     0.4,
			MaxOutputTokens: 1024,
			TimeoutSeconds:  30,
			MaxAttempts:     2,
		},
		RateLimit: RateLimitConfig{
			Limit:         defaultRateLimit,
			WindowSeconds: defaultRateWindowSeconds,
		},
		Cache: CacheConfig{
			MaxEntries: defaultCacheMaxEntries,
			TTLMinutes: defaultCacheTTLMinutes,
		},
	}
}

// applyEnv fills the API key from the environment when the file left it
// empty. Provider-specific variables win over the generic one.
func applyEnv(cfg *AppConfig) {
	if cfg.AI.APIKey != "" {
		return
	}
	var name string
	switch strings.ToLower(strings.TrimSpace(cfg.AI.Provider)) {
	case "openai":
		name = "OPENAI_API_KEY"
	case "anthropic":
		name = "ANTHROPIC_API_KEY"
	default:
		name = "GEMINI_API_KEY"
	}
	if v := os.Getenv(name); v != "" {
		cfg.AI.APIKey = v
		return
	}
	cfg.AI.APIKey = os.Getenv("FACTSHIELD_AI_API_KEY")
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaultAIProvider
	}
	if cfg.AI.MaxAttempts < 1 {
		cfg.AI.MaxAttempts = 1
	}
	if cfg.AI.TimeoutSeconds < 1 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.RateLimit.Limit < 1 {
		cfg.RateLimit.Limit = defaultRateLimit
	}
	if cfg.RateLimit.WindowSeconds < 1 {
		cfg.RateLimit.WindowSeconds = defaultRateWindowSeconds
	}
	if cfg.Cache.MaxEntries < 1 {
		cfg.Cache.MaxEntries = defaultCacheMaxEntries
	}
	if cfg.Cache.TTLMinutes < 1 {
		cfg.Cache.TTLMinutes = defaultCacheTTLMinutes
	}
}

func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
