package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/metrics"
)

const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

// RejectMessage is returned to clients that exceed the limit.
const RejectMessage = "ThrottlerException: Too Many Requests"

type bucket struct {
	count     int
	resetTime time.Time
}

// Limiter is a fixed-window request limiter keyed by client address.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// New creates a limiter allowing limit requests per window for each client.
func New(limit int, window time.Duration, logger zerolog.Logger) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
		logger:  logger.With().Str("component", "ratelimit").Logger(),
	}
}

// Middleware rejects requests over the limit with 429 before they reach the handler.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			allowed, remaining, reset := l.Allow(key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := int(reset.Sub(l.now()).Seconds() + 0.999)
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				metrics.RecordRateLimitRejection()
				l.logger.Debug().Str("client", key).Msg("Rate limit exceeded")
				return echo.NewHTTPError(http.StatusTooManyRequests, RejectMessage)
			}

			return next(c)
		}
	}
}

// Allow records a request for key and reports whether it fits in the current window,
// how many requests remain, and when the window resets.
func (l *Limiter) Allow(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, exists := l.buckets[key]
	if !exists || !now.Before(b.resetTime) {
		b = &bucket{count: 1, resetTime: now.Add(l.window)}
		l.buckets[key] = b
		return true, l.limit - 1, b.resetTime
	}

	if b.count >= l.limit {
		return false, 0, b.resetTime
	}

	b.count++
	return true, l.limit - b.count, b.resetTime
}

// Cleanup removes buckets whose window has ended.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, b := range l.buckets {
		if !now.Before(b.resetTime) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
