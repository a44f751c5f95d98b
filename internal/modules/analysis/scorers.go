package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Scorers start from 100 and subtract penalties, never dropping below 0,
// so every rule's contribution stays independently auditable.

// Penalty and threshold tables. Keep magnitudes here, not inline in the
// scorer control flow.
const (
	clickbaitPatternPenalty  = 15
	clickbaitListiclePenalty = 10

	sentimentHighDensityPenalty = 40
	sentimentMidDensityPenalty  = 25
	sentimentLowDensityPenalty  = 10

	biasHighCountPenalty = 40
	biasMidCountPenalty  = 25
	biasLowCountPenalty  = 15

	// biasHighlightCap bounds highlights collected across one analysis
	// before the bias scorer stops emitting more.
	biasHighlightCap = 20

	allCapsWordMin     = 5
	allCapsWordLen     = 3
	punctuationRunsMin = 3
	unverifiedMin      = 3

	capsRatioFlagThreshold = 0.25

	flagClickbaitThreshold = 40
	flagSentimentThreshold = 30
	flagBiasThreshold      = 35
	flagSourceThreshold    = 30
)

var clickbaitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you won't believe`),
	regexp.MustCompile(`(?i)shocking`),
	regexp.MustCompile(`(?i)unbelievable`),
	regexp.MustCompile(`(?i)must see`),
	regexp.MustCompile(`(?i)this is why`),
	regexp.MustCompile(`(?i)the reason why`),
	regexp.MustCompile(`(?i)what happened next`),
	regexp.MustCompile(`(?i)will shock you`),
	regexp.MustCompile(`(?i)doctors hate`),
	regexp.MustCompile(`(?i)one weird trick`),
	regexp.MustCompile(`(?i)\d+ (things|ways|reasons|facts)`),
	regexp.MustCompile(`!!+`),
	regexp.MustCompile(`\?!+`),
}

var listiclePattern = regexp.MustCompile(`(?i)\b\d+\s+(things|ways|reasons|facts|tips)\b`)

var emotionalKeywords = []string{
	"outrage", "scandal", "explosive", "bombshell", "devastating",
	"terrifying", "horrifying", "shocking", "unbelievable", "incredible",
	"amazing", "stunning", "mind-blowing",
}

// biasBuckets group politically loaded vocabulary; the bucket name is
// surfaced in the highlight reason.
var biasBuckets = []struct {
	name     string
	keywords []string
}{
	{"left", []string{"liberal", "progressive", "socialist", "leftist", "woke"}},
	{"right", []string{"conservative", "patriot", "freedom", "traditional", "maga"}},
	{"extreme", []string{"destroy", "attack", "war on", "threat to", "enemy", "traitor", "corrupt", "evil"}},
}

var (
	punctuationRunPattern = regexp.MustCompile(`[!?]{2,}`)
	sensationalistRun     = regexp.MustCompile(`[!?]{3,}`)

	unverifiedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)according to sources`),
		regexp.MustCompile(`(?i)sources say`),
		regexp.MustCompile(`(?i)reportedly`),
		regexp.MustCompile(`(?i)allegedly`),
		regexp.MustCompile(`(?i)rumors suggest`),
		regexp.MustCompile(`(?i)it is believed`),
	}

	conspiracyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)they don'?t want you to know`),
		regexp.MustCompile(`(?i)wake up`),
		regexp.MustCompile(`(?i)cover-?up`),
		regexp.MustCompile(`(?i)mainstream media (is )?(lying|hiding)`),
		regexp.MustCompile(`(?i)the truth about`),
	}

	urgencyPattern = regexp.MustCompile(`(?i)\b(share|act|sign) (now|immediately|before|urgent)`)
)

var (
	emotionalRegexps = compileWordRegexps(emotionalKeywords)
	biasRegexps      = compileBiasRegexps()
)

func compileWordRegexps(keywords []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return out
}

func compileBiasRegexps() [][]*regexp.Regexp {
	out := make([][]*regexp.Regexp, len(biasBuckets))
	for i, bucket := range biasBuckets {
		out[i] = compileWordRegexps(bucket.keywords)
	}
	return out
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// scoreClickbait deducts a fixed amount per matched pattern type plus a
// per-match amount for listicle phrasing.
func scoreClickbait(text string) (int, []Highlight) {
	deductions := 0
	var highlights []Highlight

	for _, pattern := range clickbaitPatterns {
		if match := pattern.FindString(text); match != "" {
			deductions += clickbaitPatternPenalty
			highlights = append(highlights, Highlight{
				Text:   match,
				Reason: "Clickbait pattern detected",
				Type:   HighlightClickbait,
			})
		}
	}

	for _, match := range listiclePattern.FindAllString(text, -1) {
		deductions += clickbaitListiclePenalty
		highlights = append(highlights, Highlight{
			Text:   match,
			Reason: "Listicle-style clickbait",
			Type:   HighlightClickbait,
		})
	}

	return clampScore(100 - deductions), highlights
}

// scoreSentiment deducts by emotional-keyword density over the word count.
func scoreSentiment(text string) (int, []Highlight) {
	emotionalCount := 0
	var highlights []Highlight

	for _, re := range emotionalRegexps {
		matches := re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		emotionalCount += len(matches)
		highlights = append(highlights, Highlight{
			Text:   matches[0],
			Reason: "Emotionally charged language",
			Type:   HighlightSentiment,
		})
	}

	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 100, nil
	}

	density := float64(emotionalCount) / float64(wordCount) * 100
	score := 100
	switch {
	case density > 5:
		score -= sentimentHighDensityPenalty
	case density > 3:
		score -= sentimentMidDensityPenalty
	case density > 1:
		score -= sentimentLowDensityPenalty
	}

	return clampScore(score), highlights
}

// scoreBias deducts by the total count of loaded terms across all
// buckets. collected is how many highlights the analysis already holds;
// the scorer stops emitting once the global cap is reached.
func scoreBias(text string, collected int) (int, []Highlight) {
	biasCount := 0
	var highlights []Highlight

	for i, bucket := range biasBuckets {
		for _, re := range biasRegexps[i] {
			matches := re.FindAllString(text, -1)
			if len(matches) == 0 {
				continue
			}
			biasCount += len(matches)
			if collected+len(highlights) < biasHighlightCap {
				highlights = append(highlights, Highlight{
					Text:   matches[0],
					Reason: fmt.Sprintf("Politically charged term (%s)", bucket.name),
					Type:   HighlightBias,
				})
			}
		}
	}

	score := 100
	switch {
	case biasCount > 5:
		score -= biasHighCountPenalty
	case biasCount > 3:
		score -= biasMidCountPenalty
	case biasCount > 1:
		score -= biasLowCountPenalty
	}

	return clampScore(score), highlights
}

// checkAllCaps flags shouting: more than allCapsWordMin words longer than
// allCapsWordLen written fully upper-case.
func checkAllCaps(text string) (string, *Highlight) {
	var capsWords []string
	for _, word := range strings.Fields(text) {
		if len(word) > allCapsWordLen && word == strings.ToUpper(word) && hasLetter(word) {
			capsWords = append(capsWords, word)
		}
	}
	if len(capsWords) <= allCapsWordMin {
		return "", nil
	}
	return "Excessive use of ALL CAPS", &Highlight{
		Text:   capsWords[0],
		Reason: "Excessive capitalization",
		Type:   HighlightClickbait,
	}
}

func hasLetter(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// checkExcessivePunctuation flags repeated !?! runs.
func checkExcessivePunctuation(text string) string {
	if len(punctuationRunPattern.FindAllString(text, -1)) >= punctuationRunsMin {
		return "Excessive punctuation usage"
	}
	return ""
}

// checkUnverifiedClaims flags heavy use of unverifiable attribution.
func checkUnverifiedClaims(text string) string {
	count := 0
	for _, re := range unverifiedPatterns {
		count += len(re.FindAllString(text, -1))
	}
	if count > unverifiedMin {
		return "Multiple unverified claims"
	}
	return ""
}

// ruleFlags derives red-flag strings from the rule signals and extra
// text patterns. Thresholds mirror the scorer penalty tables.
func ruleFlags(text string, signals Signals) []string {
	var flags []string

	if signals.ClickbaitScore < flagClickbaitThreshold {
		flags = append(flags, "Contains clickbait patterns")
	}
	if signals.SentimentScore < flagSentimentThreshold {
		flags = append(flags, "Extreme emotional language detected")
	}
	if signals.BiasScore < flagBiasThreshold {
		flags = append(flags, "Strong ideological bias present")
	}
	if signals.SourceScore < flagSourceThreshold {
		flags = append(flags, "Source has questionable credibility")
	}

	if capsRatio(text) > capsRatioFlagThreshold {
		flags = append(flags, "Excessive use of capital letters")
	}
	if sensationalistRun.MatchString(text) {
		flags = append(flags, "Sensationalist punctuation (!!!)")
	}
	for _, re := range conspiracyPatterns {
		if re.MatchString(text) {
			flags = append(flags, "Conspiracy theory language")
			break
		}
	}
	if urgencyPattern.MatchString(text) {
		flags = append(flags, "Urgency manipulation tactics")
	}

	return flags
}

func capsRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	upper := 0
	for _, r := range text {
		if r >= 'A' && r <= 'Z' {
			upper++
		}
	}
	return float64(upper) / float64(len(text))
}

// dedupeHighlights removes case-insensitive duplicates and overlapping
// spans: a highlight whose first occurrence in text starts before the
// previous kept highlight ends is discarded. At most limit survive.
func dedupeHighlights(text string, highlights []Highlight, limit int) []Highlight {
	lower := strings.ToLower(text)

	type located struct {
		Highlight
		start, end int
	}

	seen := make(map[string]struct{})
	positioned := make([]located, 0, len(highlights))
	for _, h := range highlights {
		key := strings.ToLower(h.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		idx := strings.Index(lower, key)
		if idx < 0 {
			continue
		}
		positioned = append(positioned, located{Highlight: h, start: idx, end: idx + len(key)})
	}

	sort.Slice(positioned, func(i, j int) bool { return positioned[i].start < positioned[j].start })

	kept := make([]Highlight, 0, len(positioned))
	prevEnd := -1
	for _, loc := range positioned {
		if loc.start < prevEnd {
			continue
		}
		kept = append(kept, loc.Highlight)
		prevEnd = loc.end
		if len(kept) == limit {
			break
		}
	}
	return kept
}
