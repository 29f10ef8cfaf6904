package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/scheduler"
)

// BucketSweeper drops expired rate limit windows.
type BucketSweeper interface {
	Cleanup() int
}

// RegisterRateLimitCleanupTask sweeps expired limiter buckets every minute.
func RegisterRateLimitCleanupTask(sched *scheduler.Scheduler, limiter BucketSweeper, logger zerolog.Logger) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "ratelimit-cleanup",
		Name:        "Rate Limit Cleanup",
		Description: "Removes expired per-client rate limit windows",
		Cron:        "* * * * *",
		Func: func(ctx context.Context) error {
			if removed := limiter.Cleanup(); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("Swept rate limit buckets")
			}
			return nil
		},
	})
}
