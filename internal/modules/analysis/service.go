package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/factshield/core/internal/modules/source"
	"github.com/factshield/core/internal/pkg/textcache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MinTextLength is enforced at the handler boundary; shorter inputs
	// never reach the pipeline.
	MinTextLength = 50
	// MaxTextLength is the truncation point. The truncated text is also
	// the cache key basis, so inputs differing only beyond it share a
	// cache entry.
	MaxTextLength = 5000

	neutralScore  = 50
	maxFlags      = 8
	maxHighlights = 10

	fakeThreshold = 35
	realThreshold = 75

	// aiTrustConfidence is the judge confidence above which its verdict
	// is taken directly instead of the threshold derivation.
	aiTrustConfidence = 80

	// Blend weights when the AI judgment is available.
	aiWeightML        = 0.70
	aiWeightClickbait = 0.10
	aiWeightSentiment = 0.10
	aiWeightBias      = 0.05
	aiWeightSource    = 0.05

	// Blend weights in degraded (rule-only) mode; the neutral mlScore is
	// excluded entirely.
	ruleWeightClickbait = 0.35
	ruleWeightSentiment = 0.35
	ruleWeightBias      = 0.20
	ruleWeightSource    = 0.10

	providerRuleBased = "rule-based"
)

// Acquirer fetches analyzable text for a URL. Scraping is an external
// collaborator; the pipeline only consumes its output.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (*AcquiredText, error)
}

// Service drives one analysis request through cache check, AI attempt,
// rule scoring, blending and cache store. It always produces a result.
type Service struct {
	judge  *Judge
	source *source.Service
	cache  *textcache.Cache[*Result]
	stats  *Stats
	logger *zap.Logger
}

func NewService(judge *Judge, sourceSvc *source.Service, cache *textcache.Cache[*Result], stats *Stats, logger *zap.Logger) *Service {
	return &Service{
		judge:  judge,
		source: sourceSvc,
		cache:  cache,
		stats:  stats,
		logger: logger,
	}
}

// Truncate clamps text to the pipeline's input limit.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextLength {
		return text
	}
	return string(runes[:MaxTextLength])
}

// Analyze runs the full pipeline for text. The second return value
// reports whether the result came from cache. Analyze never fails: any
// internal panic degrades to a neutral UNCERTAIN result.
func (s *Service) Analyze(ctx context.Context, text, url string) (result *Result, cached bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis pipeline panic", zap.Any("cause", r))
			s.stats.recordError(fmt.Errorf("pipeline panic: %v", r))
			result = s.fallbackResult(text, url)
			cached = false
		}
	}()

	s.stats.recordRequest()
	text = Truncate(text)

	// Single cache lookup per request; a hit returns the stored result
	// unchanged, with no re-scoring.
	if res, ok := s.cache.Get(text); ok {
		s.stats.recordCacheHit()
		return res, true
	}

	judgment := s.judge.Judge(ctx, text)
	mlScore := neutralScore
	provider := providerRuleBased
	if judgment != nil {
		s.stats.recordAISuccess()
		mlScore = judgment.CredibilityScore
		provider = s.judge.cfg.Provider
	} else if s.judge.Configured() {
		s.stats.recordAIFailed()
	}

	// Rule signals always run so the signal record is fully populated
	// even when the AI verdict is used.
	clickbaitScore, highlights := scoreClickbait(text)
	sentimentScore, sentimentHL := scoreSentiment(text)
	highlights = append(highlights, sentimentHL...)
	biasScore, biasHL := scoreBias(text, len(highlights))
	highlights = append(highlights, biasHL...)

	sourceScore := neutralScore
	var sourceInfo *source.Info
	if url != "" {
		if domain := source.ExtractDomain(url); domain != "" {
			info := s.source.Lookup(domain)
			sourceInfo = &info
			sourceScore = source.Score(info.Credibility)
		}
	}

	signals := Signals{
		MLScore:        mlScore,
		SentimentScore: sentimentScore,
		ClickbaitScore: clickbaitScore,
		SourceScore:    sourceScore,
		BiasScore:      biasScore,
	}

	var boolFlags []string
	if flag, hl := checkAllCaps(text); flag != "" {
		boolFlags = append(boolFlags, flag)
		if hl != nil {
			highlights = append(highlights, *hl)
		}
	}
	if flag := checkExcessivePunctuation(text); flag != "" {
		boolFlags = append(boolFlags, flag)
	}
	if flag := checkUnverifiedClaims(text); flag != "" {
		boolFlags = append(boolFlags, flag)
	}

	var overall int
	if judgment != nil {
		overall = blendRound(
			aiWeightML*float64(mlScore),
			aiWeightClickbait*float64(clickbaitScore),
			aiWeightSentiment*float64(sentimentScore),
			aiWeightBias*float64(biasScore),
			aiWeightSource*float64(sourceScore),
		)
	} else {
		s.stats.recordRuleBasedOnly()
		overall = blendRound(
			ruleWeightClickbait*float64(clickbaitScore),
			ruleWeightSentiment*float64(sentimentScore),
			ruleWeightBias*float64(biasScore),
			ruleWeightSource*float64(sourceScore),
		)
	}

	var flags []string
	if judgment != nil {
		flags = append(flags, judgment.Flags...)
	}
	flags = append(flags, ruleFlags(text, signals)...)
	flags = append(flags, boolFlags...)
	flags = dedupeStrings(flags, maxFlags)

	prediction, confidence := deriveVerdict(overall)
	if judgment != nil && judgment.Confidence > aiTrustConfidence && !contradictsBlend(judgment.Prediction, overall) {
		prediction = judgment.Prediction
		confidence = judgment.Confidence
	}

	explanation := ""
	if judgment != nil {
		explanation = judgment.Reasoning
	}
	if explanation == "" {
		explanation = fallbackExplanation(prediction, flags)
	}

	result = &Result{
		ID:           uuid.NewString(),
		Prediction:   prediction,
		Confidence:   confidence,
		OverallScore: overall,
		Signals:      signals,
		Flags:        flags,
		Highlights:   dedupeHighlights(text, highlights, maxHighlights),
		Explanation:  explanation,
		Source:       sourceInfo,
		OriginalText: text,
		URL:          url,
		Provider:     provider,
		Timestamp:    time.Now(),
	}
	if judgment != nil {
		result.FactualConcerns = judgment.FactualConcerns
	}

	s.cache.Put(text, result)
	return result, false
}

// CacheStats exposes cache occupancy for the monitoring endpoint.
func (s *Service) CacheStats() textcache.Stats {
	return s.cache.Stats()
}

// APIStats exposes pipeline counters for the monitoring endpoint.
func (s *Service) APIStats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Healthy reports the provider health verdict.
func (s *Service) Healthy() bool {
	return s.stats.Healthy()
}

func blendRound(parts ...float64) int {
	sum := 0.0
	for _, p := range parts {
		sum += p
	}
	return clampScore(int(math.Round(sum)))
}

func deriveVerdict(overall int) (Prediction, int) {
	switch {
	case overall < fakeThreshold:
		confidence := (50 - overall) * 2
		if confidence > 100 {
			confidence = 100
		}
		return PredictionFake, confidence
	case overall > realThreshold:
		confidence := (overall - 50) * 2
		if confidence > 100 {
			confidence = 100
		}
		return PredictionReal, confidence
	default:
		return PredictionUncertain, int(math.Round(50 + math.Abs(float64(overall)-50)/2))
	}
}

// contradictsBlend guards the trust-the-judge shortcut: a high-confidence
// AI verdict is not taken at face value when the blended score lands
// firmly in the opposite band.
func contradictsBlend(p Prediction, overall int) bool {
	switch p {
	case PredictionReal:
		return overall < fakeThreshold
	case PredictionFake:
		return overall > realThreshold
	default:
		return false
	}
}

func fallbackExplanation(prediction Prediction, flags []string) string {
	switch prediction {
	case PredictionFake:
		concerns := "multiple red flags"
		if len(flags) > 0 {
			concerns = strings.Join(flags[:min(2, len(flags))], " and ")
		}
		return fmt.Sprintf("This content shows signs of misinformation including %s. Treat it with skepticism and verify claims through trusted sources.", concerns)
	case PredictionReal:
		return "This content appears to follow standard journalistic practices with minimal red flags. Independent verification is still recommended."
	default:
		concern := "mixed signals"
		if len(flags) > 0 {
			concern = flags[0]
		}
		return fmt.Sprintf("This content has mixed indicators. Some concerns were detected (%s), but more context would be needed for a definitive assessment.", concern)
	}
}

// fallbackResult is the fail-safe answer for total pipeline failure.
func (s *Service) fallbackResult(text, url string) *Result {
	return &Result{
		ID:           uuid.NewString(),
		Prediction:   PredictionUncertain,
		Confidence:   neutralScore,
		OverallScore: neutralScore,
		Signals: Signals{
			MLScore:        neutralScore,
			SentimentScore: neutralScore,
			ClickbaitScore: neutralScore,
			SourceScore:    neutralScore,
			BiasScore:      neutralScore,
		},
		Flags:        []string{"Analysis failed - using fallback. Please try again."},
		Highlights:   []Highlight{},
		Explanation:  "Unable to complete full analysis due to technical issues. Please try again.",
		OriginalText: Truncate(text),
		URL:          url,
		Provider:     providerRuleBased,
		Timestamp:    time.Now(),
	}
}

func dedupeStrings(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
