package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/factshield/core/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"go.uber.org/zap"
)

const (
	judgeInputLimit   = 2000
	judgeBackoffBase  = time.Second
	defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta"

	judgePrompt = `You are an expert fact-checker and misinformation detection system. Analyze the following text comprehensively.

TEXT TO ANALYZE:
"%s"

Consider factual accuracy (verifiable claims, cited sources, logical consistency), emotional manipulation (fear-mongering, clickbait language), source credibility indicators (writing quality, balance), misinformation red flags (conspiracy language, unverifiable claims presented as facts, urgent share requests), and writing style (sensationalist vs. factual tone).

Respond with ONLY valid JSON in this EXACT format (no markdown, no extra text):
{
  "prediction": "FAKE" or "REAL" or "UNCERTAIN",
  "confidence": <number 0-100>,
  "reasoning": "<2-3 sentence explanation of your verdict>",
  "flags": ["<specific concern 1>", "<specific concern 2>"],
  "factualConcerns": ["<factual issue 1>", "<factual issue 2>"],
  "credibilityScore": <number 0-100, where 100 is most credible>
}

Be thorough but concise. Focus on specific, actionable concerns.`
)

var errEmptyAIResponse = errors.New("empty response from AI")

// Judge calls the external AI provider and validates its verdict. Every
// failure path resolves to a nil Judgment; callers treat nil as "AI
// unavailable" and fall back to rule-based scoring.
type Judge struct {
	cfg         config.AIConfig
	stats       *Stats
	logger      *zap.Logger
	client      *http.Client
	backoffBase time.Duration
}

func NewJudge(cfg config.AIConfig, stats *Stats, logger *zap.Logger) *Judge {
	return &Judge{
		cfg:         cfg,
		stats:       stats,
		logger:      logger,
		client:      &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		backoffBase: judgeBackoffBase,
	}
}

// Configured reports whether an API key is present. Without one Judge
// returns nil immediately and performs no network I/O.
func (j *Judge) Configured() bool {
	return strings.TrimSpace(j.cfg.APIKey) != ""
}

// Judge analyzes text, retrying transport failures with exponential
// backoff. Content-shape failures (unparseable model output) are not
// retried: the transport worked, a retry will not improve the output.
func (j *Judge) Judge(ctx context.Context, text string) *Judgment {
	if !j.Configured() {
		return nil
	}

	prompt := buildJudgePrompt(text)

	for attempt := 0; attempt < j.cfg.MaxAttempts; attempt++ {
		raw, err := j.generate(ctx, prompt)
		if err != nil {
			j.stats.recordError(err)
			j.logger.Warn("ai judge attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Int("maxAttempts", j.cfg.MaxAttempts),
				zap.Error(err),
			)
			if attempt < j.cfg.MaxAttempts-1 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(j.backoffBase << attempt):
				}
			}
			continue
		}

		judgment, err := parseJudgment(raw)
		if err != nil {
			j.stats.recordError(err)
			j.logger.Warn("unparseable ai judgment", zap.Error(err))
			return nil
		}
		return judgment
	}
	return nil
}

func buildJudgePrompt(text string) string {
	runes := []rune(text)
	if len(runes) > judgeInputLimit {
		text = string(runes[:judgeInputLimit])
	}
	return fmt.Sprintf(judgePrompt, text)
}

func (j *Judge) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(j.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	switch j.cfg.Provider {
	case "openai":
		return j.callOpenAI(ctx, prompt)
	case "anthropic":
		return j.callAnthropic(ctx, prompt)
	default:
		return j.callGemini(ctx, prompt)
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// callGemini posts to the generateContent endpoint directly; the Gemini
// wire format has no SDK counterpart in our stack.
func (j *Judge) callGemini(ctx context.Context, prompt string) (string, error) {
	base := strings.TrimRight(j.cfg.Endpoint, "/")
	if base == "" {
		base = defaultGeminiBase
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, j.cfg.Model, j.cfg.APIKey)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     j.cfg.Temperature,
			MaxOutputTokens: j.cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("gemini error (%d): %s", resp.StatusCode, truncateForLog(string(respBody)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyAIResponse
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", errEmptyAIResponse
	}
	return text, nil
}

func (j *Judge) callOpenAI(ctx context.Context, prompt string) (string, error) {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(j.cfg.APIKey),
		openaioption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(j.cfg.Endpoint); endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	client := openaiclient.NewClient(opts...)

	model := j.cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	resp, err := client.Chat.Completions.New(ctx, openaiclient.ChatCompletionNewParams{
		Model: openaiclient.ChatModel(model),
		Messages: []openaiclient.ChatCompletionMessageParamUnion{
			openaiclient.UserMessage(prompt),
		},
		Temperature: openaiclient.Float(j.cfg.Temperature),
		MaxTokens:   openaiclient.Int(int64(j.cfg.MaxOutputTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyAIResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (j *Judge) callAnthropic(ctx context.Context, prompt string) (string, error) {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(j.cfg.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(j.cfg.Endpoint); endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	client := anthropicclient.NewClient(opts...)

	model := j.cfg.Model
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}

	msg, err := client.Messages.New(ctx, anthropicclient.MessageNewParams{
		Model:       anthropicclient.Model(model),
		MaxTokens:   int64(j.cfg.MaxOutputTokens),
		Temperature: anthropicclient.Float(j.cfg.Temperature),
		Messages: []anthropicclient.MessageParam{
			anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var full strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			full.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", errEmptyAIResponse
	}
	return full.String(), nil
}

// parseJudgment defensively extracts the JSON verdict: code fences are
// stripped and, when prose surrounds the object, the first balanced
// {...} region is parsed instead.
func parseJudgment(raw string) (*Judgment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Confidence must be present and numeric; everything else has a
	// safe default.
	var parsed struct {
		Prediction       string   `json:"prediction"`
		Confidence       *float64 `json:"confidence"`
		Reasoning        string   `json:"reasoning"`
		Flags            []string `json:"flags"`
		FactualConcerns  []string `json:"factualConcerns"`
		CredibilityScore float64  `json:"credibilityScore"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("invalid JSON in AI response")
		}
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &parsed); err != nil {
			return nil, fmt.Errorf("invalid JSON in AI response")
		}
	}

	prediction := Prediction(strings.ToUpper(strings.TrimSpace(parsed.Prediction)))
	switch prediction {
	case PredictionFake, PredictionReal, PredictionUncertain:
	default:
		return nil, fmt.Errorf("invalid prediction %q in AI response", parsed.Prediction)
	}
	if parsed.Confidence == nil {
		return nil, fmt.Errorf("missing confidence in AI response")
	}

	judgment := &Judgment{
		Prediction:       prediction,
		Confidence:       clampScore(int(*parsed.Confidence)),
		Reasoning:        strings.TrimSpace(parsed.Reasoning),
		Flags:            parsed.Flags,
		FactualConcerns:  parsed.FactualConcerns,
		CredibilityScore: clampScore(int(parsed.CredibilityScore)),
	}
	if judgment.Flags == nil {
		judgment.Flags = []string{}
	}
	if judgment.FactualConcerns == nil {
		judgment.FactualConcerns = []string{}
	}
	return judgment, nil
}

func truncateForLog(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
