package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreClickbait(t *testing.T) {
	t.Run("clean text scores 100", func(t *testing.T) {
		score, highlights := scoreClickbait("The committee published its annual budget review on Tuesday.")
		assert.Equal(t, 100, score)
		assert.Empty(t, highlights)
	})

	t.Run("each matched pattern deducts once", func(t *testing.T) {
		score, highlights := scoreClickbait("You won't believe what happened next")
		assert.Equal(t, 70, score)
		assert.Len(t, highlights, 2)
		for _, h := range highlights {
			assert.Equal(t, HighlightClickbait, h.Type)
		}
	})

	t.Run("listicle phrasing deducts on top of the numeric pattern", func(t *testing.T) {
		score, highlights := scoreClickbait("7 things nobody tells you about mortgages")
		assert.Equal(t, 75, score)
		assert.Len(t, highlights, 2)
	})

	t.Run("score floors at zero", func(t *testing.T) {
		text := "SHOCKING!! You won't believe this unbelievable must see story!!" +
			" Doctors hate this one weird trick, will shock you?! This is why..."
		score, _ := scoreClickbait(text)
		assert.GreaterOrEqual(t, score, 0)
	})
}

func TestScoreSentiment(t *testing.T) {
	t.Run("neutral text scores 100", func(t *testing.T) {
		score, highlights := scoreSentiment("The report describes quarterly earnings in detail.")
		assert.Equal(t, 100, score)
		assert.Empty(t, highlights)
	})

	t.Run("high emotional density", func(t *testing.T) {
		// 2 emotional words in 4 words: density 50%, top penalty tier.
		score, highlights := scoreSentiment("outrage and scandal erupted")
		assert.Equal(t, 60, score)
		assert.Len(t, highlights, 2)
		assert.Equal(t, HighlightSentiment, highlights[0].Type)
	})

	t.Run("low emotional density", func(t *testing.T) {
		// 1 emotional word in 80: density 1.25%, lowest penalty tier.
		text := strings.Repeat("word ", 79) + "bombshell"
		score, highlights := scoreSentiment(text)
		assert.Equal(t, 90, score)
		assert.Len(t, highlights, 1)
	})
}

func TestScoreBias(t *testing.T) {
	t.Run("neutral text scores 100", func(t *testing.T) {
		score, highlights := scoreBias("The parliament debated infrastructure funding.", 0)
		assert.Equal(t, 100, score)
		assert.Empty(t, highlights)
	})

	t.Run("heavy loaded vocabulary", func(t *testing.T) {
		text := "The corrupt evil traitor enemy will attack the woke liberal agenda"
		score, highlights := scoreBias(text, 0)
		assert.Equal(t, 60, score)
		assert.NotEmpty(t, highlights)
		for _, h := range highlights {
			assert.Equal(t, HighlightBias, h.Type)
		}
	})

	t.Run("highlight cap suppresses output but not the score", func(t *testing.T) {
		text := "The corrupt evil traitor enemy will attack the woke liberal agenda"
		capped, highlights := scoreBias(text, biasHighlightCap)
		uncapped, _ := scoreBias(text, 0)
		assert.Equal(t, uncapped, capped)
		assert.Empty(t, highlights)
	})
}

func TestBooleanChecks(t *testing.T) {
	t.Run("all caps", func(t *testing.T) {
		flag, hl := checkAllCaps("BREAKING NEWS THIS WILL SHOCK EVERYONE TODAY")
		assert.Equal(t, "Excessive use of ALL CAPS", flag)
		require.NotNil(t, hl)
		assert.Equal(t, "BREAKING", hl.Text)

		flag, hl = checkAllCaps("This is fine, OK")
		assert.Empty(t, flag)
		assert.Nil(t, hl)
	})

	t.Run("punctuation runs", func(t *testing.T) {
		assert.Equal(t, "Excessive punctuation usage", checkExcessivePunctuation("Really!! No way?! Stop!!"))
		assert.Empty(t, checkExcessivePunctuation("Really! No way."))
	})

	t.Run("unverified claims", func(t *testing.T) {
		text := "According to sources, sources say the deal reportedly and allegedly collapsed."
		assert.Equal(t, "Multiple unverified claims", checkUnverifiedClaims(text))
		assert.Empty(t, checkUnverifiedClaims("Reportedly, the deal collapsed."))
	})
}

func TestRuleFlags(t *testing.T) {
	t.Run("low signals produce signal flags", func(t *testing.T) {
		flags := ruleFlags("plain text", Signals{
			MLScore:        50,
			ClickbaitScore: 30,
			SentimentScore: 20,
			BiasScore:      30,
			SourceScore:    20,
		})
		assert.Contains(t, flags, "Contains clickbait patterns")
		assert.Contains(t, flags, "Extreme emotional language detected")
		assert.Contains(t, flags, "Strong ideological bias present")
		assert.Contains(t, flags, "Source has questionable credibility")
	})

	t.Run("text patterns produce pattern flags", func(t *testing.T) {
		healthy := Signals{MLScore: 50, ClickbaitScore: 100, SentimentScore: 100, BiasScore: 100, SourceScore: 50}

		flags := ruleFlags("wake up people, the truth about this is hidden!!! share now", healthy)
		assert.Contains(t, flags, "Conspiracy theory language")
		assert.Contains(t, flags, "Sensationalist punctuation (!!!)")
		assert.Contains(t, flags, "Urgency manipulation tactics")

		assert.Empty(t, ruleFlags("A calm factual sentence.", healthy))
	})

	t.Run("caps ratio flag", func(t *testing.T) {
		flags := ruleFlags("THE WHOLE TEXT IS SHOUTED", Signals{MLScore: 50, ClickbaitScore: 100, SentimentScore: 100, BiasScore: 100, SourceScore: 50})
		assert.Contains(t, flags, "Excessive use of capital letters")
	})
}

func TestCapsRatio(t *testing.T) {
	assert.Equal(t, 0.0, capsRatio(""))
	assert.Equal(t, 1.0, capsRatio("ABC"))
	assert.InDelta(t, 0.5, capsRatio("AbCd"), 0.001)
}

func TestDedupeHighlights(t *testing.T) {
	t.Run("case-insensitive duplicates collapse", func(t *testing.T) {
		text := "shocking claims about the vote"
		out := dedupeHighlights(text, []Highlight{
			{Text: "shocking", Type: HighlightSentiment},
			{Text: "SHOCKING", Type: HighlightClickbait},
			{Text: "claims", Type: HighlightBias},
		}, 10)
		require.Len(t, out, 2)
		assert.Equal(t, "shocking", out[0].Text)
		assert.Equal(t, "claims", out[1].Text)
	})

	t.Run("overlapping spans are dropped", func(t *testing.T) {
		text := "you won't believe this"
		out := dedupeHighlights(text, []Highlight{
			{Text: "won't"},
			{Text: "you won't believe"},
		}, 10)
		require.Len(t, out, 1)
		assert.Equal(t, "you won't believe", out[0].Text)
	})

	t.Run("spans absent from the text are dropped", func(t *testing.T) {
		out := dedupeHighlights("some text", []Highlight{{Text: "missing"}}, 10)
		assert.Empty(t, out)
	})

	t.Run("limit is enforced", func(t *testing.T) {
		text := "alpha beta gamma delta"
		out := dedupeHighlights(text, []Highlight{
			{Text: "alpha"}, {Text: "beta"}, {Text: "gamma"}, {Text: "delta"},
		}, 2)
		assert.Len(t, out, 2)
	})

	t.Run("output ordered by position in text", func(t *testing.T) {
		text := "first things come before last things"
		out := dedupeHighlights(text, []Highlight{
			{Text: "last"},
			{Text: "first"},
		}, 10)
		require.Len(t, out, 2)
		assert.Equal(t, "first", out[0].Text)
		assert.Equal(t, "last", out[1].Text)
	})
}
