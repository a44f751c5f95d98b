package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobsOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := New()
	s.Register(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "tick", items[0].Name)
}

func TestSchedulerRecordsFailure(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "broken",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			return errors.New("boom")
		},
	})

	require.NoError(t, s.Run(context.Background(), "broken"))

	assert.Eventually(t, func() bool {
		items := s.List()
		return len(items) == 1 && items[0].Status == StatusReject
	}, time.Second, 5*time.Millisecond)

	items := s.List()
	assert.Equal(t, "boom", items[0].Message)
	assert.NotNil(t, items[0].LastRunAt)
}

func TestSchedulerRunUnknownJob(t *testing.T) {
	s := New()
	assert.Error(t, s.Run(context.Background(), "missing"))
}
