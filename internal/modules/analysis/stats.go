package analysis

import (
	"fmt"
	"sync"
	"time"
)

// Stats tracks pipeline and provider counters. One instance is owned by
// the app and shared across requests; tests construct their own.
type Stats struct {
	mu sync.Mutex

	total         int64
	aiSuccess     int64
	aiFailed      int64
	cacheHits     int64
	ruleBasedOnly int64

	apiCalls      int64
	failures      int64
	lastError     string
	lastErrorTime time.Time
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) recordRequest() {
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
}

func (s *Stats) recordCacheHit() {
	s.mu.Lock()
	s.cacheHits++
	s.mu.Unlock()
}

func (s *Stats) recordAISuccess() {
	s.mu.Lock()
	s.aiSuccess++
	s.apiCalls++
	s.mu.Unlock()
}

func (s *Stats) recordAIFailed() {
	s.mu.Lock()
	s.aiFailed++
	s.apiCalls++
	s.mu.Unlock()
}

func (s *Stats) recordRuleBasedOnly() {
	s.mu.Lock()
	s.ruleBasedOnly++
	s.mu.Unlock()
}

func (s *Stats) recordError(err error) {
	s.mu.Lock()
	s.failures++
	s.lastError = err.Error()
	s.lastErrorTime = time.Now()
	s.mu.Unlock()
}

// StatsSnapshot is the serializable view for the monitoring endpoint.
type StatsSnapshot struct {
	TotalCalls    int64  `json:"totalCalls"`
	CacheHits     int64  `json:"cacheHits"`
	APICalls      int64  `json:"apiCalls"`
	AISuccess     int64  `json:"aiSuccess"`
	AIFailed      int64  `json:"aiFailed"`
	RuleBasedOnly int64  `json:"ruleBasedOnly"`
	Failures      int64  `json:"failures"`
	CacheHitRate  string `json:"cacheHitRate"`
	SuccessRate   string `json:"successRate"`
	FailureRate   string `json:"failureRate"`
	LastError     string `json:"lastError,omitempty"`
	LastErrorTime string `json:"lastErrorTime,omitempty"`
}

// Snapshot derives rates from the raw counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalCalls:    s.total,
		CacheHits:     s.cacheHits,
		APICalls:      s.apiCalls,
		AISuccess:     s.aiSuccess,
		AIFailed:      s.aiFailed,
		RuleBasedOnly: s.ruleBasedOnly,
		Failures:      s.failures,
		CacheHitRate:  rate(s.cacheHits, s.total),
		SuccessRate:   rate(s.aiSuccess, s.aiSuccess+s.aiFailed),
		FailureRate:   rate(s.failures, s.apiCalls),
		LastError:     s.lastError,
	}
	if !s.lastErrorTime.IsZero() {
		snap.LastErrorTime = s.lastErrorTime.Format(time.RFC3339)
	}
	return snap
}

// Healthy reports whether the provider failure rate is acceptable.
func (s *Stats) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apiCalls == 0 {
		return true
	}
	return float64(s.failures)/float64(s.apiCalls) < 0.5
}

func rate(part, whole int64) string {
	if whole == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}
