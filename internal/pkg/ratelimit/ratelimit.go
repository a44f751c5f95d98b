package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 10
	// DefaultWindow is the fixed-window length.
	DefaultWindow = time.Minute

	statsClientsMax = 10
)

// entry tracks one client's request count inside its current window.
type entry struct {
	count   int
	resetAt time.Time
}

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed           bool      `json:"allowed"`
	Remaining         int       `json:"remaining"`
	ResetAt           time.Time `json:"resetAt"`
	RetryAfterSeconds int       `json:"retryAfterSeconds,omitempty"`
}

// ClientStat is the anonymized view of one tracked client.
type ClientStat struct {
	Client  string `json:"client"`
	Count   int    `json:"count"`
	ResetIn int    `json:"resetIn"`
}

// Stats summarizes the limiter state for monitoring.
type Stats struct {
	TotalTracked  int          `json:"totalTracked"`
	ActiveClients int          `json:"activeClients"`
	Clients       []ClientStat `json:"clients"`
}

// Limiter enforces a fixed-window request limit per client identifier.
// Entries are written whole under the lock; duplicate-key races resolve
// last-writer-wins.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*entry
}

func New() *Limiter {
	return &Limiter{clients: make(map[string]*entry)}
}

// Check records one request for clientID and reports whether it is allowed.
// The first request of a window (or any request after the window elapsed)
// resets the counter.
func (l *Limiter) Check(clientID string, limit int, window time.Duration) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[clientID]
	if !ok || now.After(e.resetAt) {
		resetAt := now.Add(window)
		l.clients[clientID] = &entry{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: resetAt}
	}

	if e.count < limit {
		e.count++
		return Result{Allowed: true, Remaining: limit - e.count, ResetAt: e.resetAt}
	}

	retryAfter := int(math.Ceil(time.Until(e.resetAt).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt, RetryAfterSeconds: retryAfter}
}

// Sweep drops entries whose window has elapsed and returns how many were
// removed. Runs on a cron cadence so the map stays bounded.
func (l *Limiter) Sweep() int {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.clients {
		if now.After(e.resetAt) {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// Stats reports tracked and active clients. Client identifiers are
// truncated so the monitoring endpoint never exposes full addresses.
func (l *Limiter) Stats() Stats {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{TotalTracked: len(l.clients)}
	for id, e := range l.clients {
		if now.After(e.resetAt) {
			continue
		}
		stats.ActiveClients++
		if len(stats.Clients) >= statsClientsMax {
			continue
		}
		stats.Clients = append(stats.Clients, ClientStat{
			Client:  anonymize(id),
			Count:   e.count,
			ResetIn: int(math.Ceil(e.resetAt.Sub(now).Seconds())),
		})
	}
	return stats
}

func anonymize(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10] + "..."
}
