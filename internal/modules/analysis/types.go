package analysis

import (
	"time"

	"github.com/factshield/core/internal/modules/source"
)

// Prediction is the credibility verdict for a piece of text.
type Prediction string

const (
	PredictionFake      Prediction = "FAKE"
	PredictionReal      Prediction = "REAL"
	PredictionUncertain Prediction = "UNCERTAIN"
)

// Signals are the five sub-scores feeding the blend. All fields are
// always populated; an unavailable AI judgment is reported as neutral 50,
// never as missing.
type Signals struct {
	MLScore        int `json:"mlScore"`
	SentimentScore int `json:"sentimentScore"`
	ClickbaitScore int `json:"clickbaitScore"`
	SourceScore    int `json:"sourceScore"`
	BiasScore      int `json:"biasScore"`
}

// HighlightType categorizes an evidentiary span.
type HighlightType string

const (
	HighlightFake      HighlightType = "fake"
	HighlightBias      HighlightType = "bias"
	HighlightClickbait HighlightType = "clickbait"
	HighlightSentiment HighlightType = "sentiment"
)

// Highlight is a span of the analyzed text surfaced as evidence.
type Highlight struct {
	Text   string        `json:"text"`
	Reason string        `json:"reason"`
	Type   HighlightType `json:"type"`
}

// Result is the immutable outcome of one analysis. It is created once
// per uncached request, cached, and never mutated afterwards.
type Result struct {
	ID              string       `json:"id"`
	Prediction      Prediction   `json:"prediction"`
	Confidence      int          `json:"confidence"`
	OverallScore    int          `json:"overallScore"`
	Signals         Signals      `json:"signals"`
	Flags           []string     `json:"flags"`
	Highlights      []Highlight  `json:"highlights"`
	Explanation     string       `json:"explanation"`
	Source          *source.Info `json:"source,omitempty"`
	OriginalText    string       `json:"originalText"`
	URL             string       `json:"url,omitempty"`
	FactualConcerns []string     `json:"factualConcerns,omitempty"`
	Provider        string       `json:"apiProvider"` // provider name or "rule-based"
	Timestamp       time.Time    `json:"timestamp"`
}

// Judgment is the validated response of the external AI judge.
type Judgment struct {
	Prediction       Prediction `json:"prediction"`
	Confidence       int        `json:"confidence"`
	Reasoning        string     `json:"reasoning"`
	Flags            []string   `json:"flags"`
	FactualConcerns  []string   `json:"factualConcerns"`
	CredibilityScore int        `json:"credibilityScore"`
}

// AcquiredText is what a text-acquisition collaborator returns for a URL.
// Scraping itself is outside this service; see Acquirer.
type AcquiredText struct {
	Text    string `json:"text"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
