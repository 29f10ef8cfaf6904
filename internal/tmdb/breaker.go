package tmdb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/slipstream/marquee/internal/config"
	"github.com/slipstream/marquee/internal/metrics"
)

// newBreaker opens after cfg.Failures consecutive internal failures.
// Answers the provider gave on purpose (401, 404, 400) do not count against it.
func newBreaker(cfg config.BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	failures := uint32(cfg.Failures)
	if failures == 0 {
		failures = 5
	}
	cooldown := time.Duration(cfg.Cooldown) * time.Second
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	metrics.SetBreakerState(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrUnauthorized) ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrBadRequest) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.SetBreakerState(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
