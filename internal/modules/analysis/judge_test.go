package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/factshield/core/internal/config"
)

const validJudgmentJSON = `{
	"prediction": "FAKE",
	"confidence": 92,
	"reasoning": "Multiple unverifiable claims presented as fact.",
	"flags": ["Unverifiable claims"],
	"factualConcerns": ["No named sources"],
	"credibilityScore": 15
}`

// geminiBody wraps model output in the generateContent response shape.
func geminiBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestJudge(endpoint string, maxAttempts int) *Judge {
	j := NewJudge(config.AIConfig{
		Provider:        "gemini",
		APIKey:          "test-key",
		Endpoint:        endpoint,
		Model:           "gemini-2.0-flash",
		Temperature:     0.4,
		MaxOutputTokens: 1024,
		TimeoutSeconds:  5,
		MaxAttempts:     maxAttempts,
	}, NewStats(), zap.NewNop())
	j.backoffBase = time.Millisecond
	return j
}

func TestJudgeUnconfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 2)
	j.cfg.APIKey = ""

	assert.False(t, j.Configured())
	assert.Nil(t, j.Judge(context.Background(), "some text"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestJudgeParsesCodeFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(geminiBody(t, "```json\n"+validJudgmentJSON+"\n```"))
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 2)
	judgment := j.Judge(context.Background(), "some text")
	require.NotNil(t, judgment)
	assert.Equal(t, PredictionFake, judgment.Prediction)
	assert.Equal(t, 92, judgment.Confidence)
	assert.Equal(t, 15, judgment.CredibilityScore)
	assert.Equal(t, []string{"Unverifiable claims"}, judgment.Flags)
}

func TestJudgeRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(geminiBody(t, validJudgmentJSON))
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 2)
	judgment := j.Judge(context.Background(), "some text")
	require.NotNil(t, judgment)
	assert.Equal(t, int32(2), calls.Load())
}

func TestJudgeGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 2)
	assert.Nil(t, j.Judge(context.Background(), "some text"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestJudgeDoesNotRetryParseFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write(geminiBody(t, "I think this article is probably fake news."))
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 3)
	assert.Nil(t, j.Judge(context.Background(), "some text"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestJudgeContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	j := newTestJudge(srv.URL, 3)
	j.backoffBase = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *Judgment, 1)
	go func() { done <- j.Judge(ctx, "some text") }()
	cancel()

	select {
	case judgment := <-done:
		assert.Nil(t, judgment)
	case <-time.After(5 * time.Second):
		t.Fatal("judge did not return after context cancellation")
	}
}

func TestParseJudgment(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		judgment, err := parseJudgment(validJudgmentJSON)
		require.NoError(t, err)
		assert.Equal(t, PredictionFake, judgment.Prediction)
		assert.Equal(t, "Multiple unverifiable claims presented as fact.", judgment.Reasoning)
	})

	t.Run("JSON embedded in prose", func(t *testing.T) {
		judgment, err := parseJudgment("Here is my analysis:\n" + validJudgmentJSON + "\nLet me know if you need more.")
		require.NoError(t, err)
		assert.Equal(t, PredictionFake, judgment.Prediction)
	})

	t.Run("lowercase prediction is normalized", func(t *testing.T) {
		judgment, err := parseJudgment(`{"prediction": "real", "confidence": 70, "credibilityScore": 80}`)
		require.NoError(t, err)
		assert.Equal(t, PredictionReal, judgment.Prediction)
	})

	t.Run("out-of-range scores clamp", func(t *testing.T) {
		judgment, err := parseJudgment(`{"prediction": "REAL", "confidence": 180, "credibilityScore": -5}`)
		require.NoError(t, err)
		assert.Equal(t, 100, judgment.Confidence)
		assert.Equal(t, 0, judgment.CredibilityScore)
	})

	t.Run("missing arrays default to empty", func(t *testing.T) {
		judgment, err := parseJudgment(`{"prediction": "UNCERTAIN", "confidence": 50, "credibilityScore": 50}`)
		require.NoError(t, err)
		assert.NotNil(t, judgment.Flags)
		assert.NotNil(t, judgment.FactualConcerns)
		assert.Empty(t, judgment.Flags)
	})

	t.Run("invalid prediction rejected", func(t *testing.T) {
		_, err := parseJudgment(`{"prediction": "MAYBE", "confidence": 50, "credibilityScore": 50}`)
		assert.Error(t, err)
	})

	t.Run("missing confidence rejected", func(t *testing.T) {
		_, err := parseJudgment(`{"prediction": "REAL", "credibilityScore": 50}`)
		assert.Error(t, err)
	})

	t.Run("non-JSON rejected", func(t *testing.T) {
		_, err := parseJudgment("definitely fake, trust me")
		assert.Error(t, err)
	})
}
