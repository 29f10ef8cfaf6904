package tasks

import (
	"context"
	"fmt"

	"github.com/slipstream/marquee/internal/scheduler"
	"github.com/slipstream/marquee/internal/tmdb"
)

// ConfigurationSource is the provider configuration cache owner.
type ConfigurationSource interface {
	Configuration(ctx context.Context) (*tmdb.Configuration, error)
	InvalidateConfiguration()
}

// RegisterConfigRefreshTask warms the provider image configuration at startup.
// Scheduled runs only load it when the cache is still empty; a manual run drops
// the cached copy and fetches it again.
func RegisterConfigRefreshTask(sched *scheduler.Scheduler, source ConfigurationSource) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "tmdb-config-refresh",
		Name:        "TMDB Configuration Refresh",
		Description: "Loads the image base URL and sizes from TMDB; a manual run reloads them",
		Cron:        "0 4 * * *",
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			if scheduler.IsManualRun(ctx) {
				source.InvalidateConfiguration()
			}
			if _, err := source.Configuration(ctx); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return nil
		},
	})
}
