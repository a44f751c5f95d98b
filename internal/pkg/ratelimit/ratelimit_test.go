package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFixedWindow(t *testing.T) {
	l := New()

	for i := 0; i < 10; i++ {
		res := l.Check("203.0.113.7", 10, time.Minute)
		require.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 9-i, res.Remaining)
	}

	res := l.Check("203.0.113.7", 10, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfterSeconds, 0)
}

func TestCheckWindowReset(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		l.Check("client-a", 3, 30*time.Millisecond)
	}
	assert.False(t, l.Check("client-a", 3, 30*time.Millisecond).Allowed)

	time.Sleep(40 * time.Millisecond)

	res := l.Check("client-a", 3, 30*time.Millisecond)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestCheckIsolatesClients(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		l.Check("client-a", 5, time.Minute)
	}
	assert.False(t, l.Check("client-a", 5, time.Minute).Allowed)
	assert.True(t, l.Check("client-b", 5, time.Minute).Allowed)
}

func TestSweep(t *testing.T) {
	l := New()

	l.Check("stale-1", 10, 10*time.Millisecond)
	l.Check("stale-2", 10, 10*time.Millisecond)
	l.Check("fresh", 10, time.Minute)

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 2, l.Sweep())
	assert.Equal(t, 1, l.Stats().TotalTracked)
}

func TestStatsAnonymizesClients(t *testing.T) {
	l := New()

	l.Check("2001:db8::abcd:1234", 10, time.Minute)
	l.Check("10.0.0.1", 10, time.Minute)

	stats := l.Stats()
	require.Equal(t, 2, stats.ActiveClients)
	for _, c := range stats.Clients {
		assert.LessOrEqual(t, len(c.Client), 13)
	}
}
