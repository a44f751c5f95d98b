package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	svc := NewService()

	tests := []struct {
		domain string
		want   Level
	}{
		{"reuters.com", LevelHigh},
		{"www.bbc.co.uk", LevelHigh},
		{"Reuters.com", LevelHigh},
		{"infowars.com", LevelLow},
		{"theonion.com", LevelLow},
		{"example.com", LevelMedium},
		{"some-blog.net", LevelMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.Lookup(tt.domain).Credibility, "domain %s", tt.domain)
	}
}

func TestScore(t *testing.T) {
	assert.Equal(t, 90, Score(LevelHigh))
	assert.Equal(t, 50, Score(LevelMedium))
	assert.Equal(t, 10, Score(LevelLow))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "nytimes.com", ExtractDomain("https://www.nytimes.com/2026/01/story.html"))
	assert.Equal(t, "bbc.com", ExtractDomain("http://bbc.com"))
	assert.Equal(t, "", ExtractDomain("not a url"))
}
