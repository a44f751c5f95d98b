// Package source assigns a credibility level to news domains using
// curated allow/deny lists. Unlisted domains are medium by default.
package source

import (
	neturl "net/url"
	"strings"
)

// Level is the qualitative credibility bucket of a domain.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Info is the credibility assessment of one domain.
type Info struct {
	Domain      string `json:"domain"`
	Credibility Level  `json:"credibility"`
}

// credibleDomains are established outlets with strong editorial standards.
var credibleDomains = map[string]struct{}{
	"reuters.com":        {},
	"apnews.com":         {},
	"bbc.com":            {},
	"bbc.co.uk":          {},
	"npr.org":            {},
	"pbs.org":            {},
	"theguardian.com":    {},
	"nytimes.com":        {},
	"washingtonpost.com": {},
	"wsj.com":            {},
	"economist.com":      {},
	"ft.com":             {},
	"bloomberg.com":      {},
	"axios.com":          {},
	"propublica.org":     {},
}

// unreliableDomains are known fabricated-news or satire outlets.
var unreliableDomains = map[string]struct{}{
	"infowars.com":             {},
	"naturalnews.com":          {},
	"beforeitsnews.com":        {},
	"worldnewsdailyreport.com": {},
	"nationalreport.net":       {},
	"empirenews.net":           {},
	"huzlers.com":              {},
	"thedailymash.co.uk":       {},
	"theonion.com":             {},
	"clickhole.com":            {},
}

// Service performs domain credibility lookups.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Lookup classifies a domain against the static lists.
func (s *Service) Lookup(domain string) Info {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	normalized = strings.TrimPrefix(normalized, "www.")

	if _, ok := credibleDomains[normalized]; ok {
		return Info{Domain: normalized, Credibility: LevelHigh}
	}
	if _, ok := unreliableDomains[normalized]; ok {
		return Info{Domain: normalized, Credibility: LevelLow}
	}
	return Info{Domain: normalized, Credibility: LevelMedium}
}

// Score maps a credibility level to its 0-100 signal value.
func Score(level Level) int {
	switch level {
	case LevelHigh:
		return 90
	case LevelLow:
		return 10
	default:
		return 50
	}
}

// ExtractDomain pulls the host out of a URL, dropping a www. prefix.
// Returns "" when the URL does not parse.
func ExtractDomain(rawURL string) string {
	parsed, err := neturl.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
