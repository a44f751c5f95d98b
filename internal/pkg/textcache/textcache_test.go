package textcache

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyNormalization(t *testing.T) {
	base := Key("Hello World")

	assert.Equal(t, base, Key("hello world"))
	assert.Equal(t, base, Key("Hello   World"))
	assert.Equal(t, base, Key("  Hello World \n"))
	assert.NotEqual(t, base, Key("Hello Worlds"))
}

func TestKeyHashesFullText(t *testing.T) {
	// Two long texts sharing a prefix must not collide.
	prefix := strings.Repeat("same prefix ", 50)
	assert.NotEqual(t, Key(prefix+"ending one"), Key(prefix+"ending two"))
}

func TestGetPut(t *testing.T) {
	c := New[string](10, time.Minute)

	_, ok := c.Get("some article text")
	assert.False(t, ok)

	c.Put("some article text", "verdict")
	got, ok := c.Get("Some  Article  TEXT")
	require.True(t, ok)
	assert.Equal(t, "verdict", got)
}

func TestLazyExpiry(t *testing.T) {
	c := New[int](10, 15*time.Millisecond)

	c.Put("short lived", 1)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("short lived")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on read")
}

func TestPutRefreshesTTL(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Put("text", 1)
	c.Put("text", 2)

	got, ok := c.Get("text")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Len())
}

func TestBulkEviction(t *testing.T) {
	c := New[int](100, time.Minute)

	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("article number %d", i), i)
	}
	require.Equal(t, 100, c.Len())

	c.Put("one more article", 100)

	// 20% of 100 evicted, then one inserted.
	assert.Equal(t, 81, c.Len())
	_, ok := c.Get("one more article")
	assert.True(t, ok, "the fresh entry must survive eviction")
}

func TestCleanupExpired(t *testing.T) {
	c := New[int](10, 15*time.Millisecond)

	c.Put("a", 1)
	c.Put("b", 2)
	time.Sleep(25 * time.Millisecond)
	c.Put("c", 3)

	// CleanupExpired only counts entries past their TTL.
	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Len())
}

func TestStats(t *testing.T) {
	c := New[int](100, time.Hour)

	for i := 0; i < 25; i++ {
		c.Put(fmt.Sprintf("entry %d", i), i)
	}

	stats := c.Stats()
	assert.Equal(t, 25, stats.TotalEntries)
	assert.Equal(t, 25, stats.ValidEntries)
	assert.Equal(t, 0, stats.ExpiredEntries)
	assert.Equal(t, 100, stats.MaxSize)
	assert.Equal(t, 25, stats.UtilizationPercent)
	assert.Equal(t, 60, stats.TTLMinutes)
}

func TestClear(t *testing.T) {
	c := New[int](10, time.Minute)

	c.Put("a", 1)
	c.Put("b", 2)

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())
}
