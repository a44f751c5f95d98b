package app

import (
	"context"
	"time"

	"github.com/factshield/core/internal/modules/analysis"
	pkgcron "github.com/factshield/core/internal/pkg/cron"
	"github.com/factshield/core/internal/pkg/ratelimit"
	"github.com/factshield/core/internal/pkg/textcache"
	"go.uber.org/zap"
)

// registerCronJobs registers the in-memory housekeeping jobs. Both stores
// also expire lazily on access; the jobs only bound memory for keys that
// are never touched again.
func registerCronJobs(sched *pkgcron.Scheduler, limiter *ratelimit.Limiter, cache *textcache.Cache[*analysis.Result], logger *zap.Logger) {
	sched.Register(pkgcron.Job{
		Name:        "sweep_rate_limiter",
		Description: "drop rate-limit windows that have fully elapsed",
		Interval:    5 * time.Minute,
		Fn: func(ctx context.Context) error {
			if removed := limiter.Sweep(); removed > 0 {
				logger.Info("rate limiter swept", zap.Int("removed", removed))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_result_cache",
		Description: "evict expired analysis results",
		Interval:    10 * time.Minute,
		Fn: func(ctx context.Context) error {
			if removed := cache.CleanupExpired(); removed > 0 {
				logger.Info("result cache cleaned", zap.Int("removed", removed))
			}
			return nil
		},
	})
}
