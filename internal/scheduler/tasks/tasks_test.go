package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/slipstream/marquee/internal/scheduler"
	"github.com/slipstream/marquee/internal/tmdb"
)

type fakeSweeper struct{ calls atomic.Int32 }

func (f *fakeSweeper) Cleanup() int {
	f.calls.Add(1)
	return 3
}

type fakeConfigSource struct {
	invalidated atomic.Int32
	fetched     atomic.Int32
	err         error
}

func (f *fakeConfigSource) Configuration(context.Context) (*tmdb.Configuration, error) {
	f.fetched.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &tmdb.Configuration{}, nil
}

func (f *fakeConfigSource) InvalidateConfiguration() {
	f.invalidated.Add(1)
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	s, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func waitIdle(t *testing.T, s *scheduler.Scheduler, id string) *scheduler.TaskInfo {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		info, err := s.GetTask(id)
		if err != nil {
			t.Fatalf("GetTask(%q) error = %v", id, err)
		}
		if info.LastRun != nil && !info.Running {
			return info
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %q did not finish", id)
	return nil
}

func TestRateLimitCleanupTask(t *testing.T) {
	s := newScheduler(t)
	sweeper := &fakeSweeper{}
	if err := RegisterRateLimitCleanupTask(s, sweeper, zerolog.Nop()); err != nil {
		t.Fatalf("register error = %v", err)
	}

	if err := s.RunNow("ratelimit-cleanup"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	info := waitIdle(t, s, "ratelimit-cleanup")

	if got := sweeper.calls.Load(); got != 1 {
		t.Errorf("Cleanup calls = %d, want 1", got)
	}
	if info.Cron != "* * * * *" {
		t.Errorf("Cron = %q", info.Cron)
	}
}

func TestConfigRefreshTask_ManualRunReloads(t *testing.T) {
	s := newScheduler(t)
	source := &fakeConfigSource{}
	if err := RegisterConfigRefreshTask(s, source); err != nil {
		t.Fatalf("register error = %v", err)
	}

	if err := s.RunNow("tmdb-config-refresh"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	info := waitIdle(t, s, "tmdb-config-refresh")

	if source.invalidated.Load() != 1 || source.fetched.Load() != 1 {
		t.Errorf("invalidated = %d, fetched = %d, want 1 and 1", source.invalidated.Load(), source.fetched.Load())
	}
	if info.LastError != "" {
		t.Errorf("LastError = %q, want empty", info.LastError)
	}
}

func TestConfigRefreshTask_StartupDoesNotInvalidate(t *testing.T) {
	s := newScheduler(t)
	source := &fakeConfigSource{}
	if err := RegisterConfigRefreshTask(s, source); err != nil {
		t.Fatalf("register error = %v", err)
	}

	s.Start()
	waitIdle(t, s, "tmdb-config-refresh")

	if source.fetched.Load() != 1 {
		t.Errorf("fetched = %d, want 1", source.fetched.Load())
	}
	if source.invalidated.Load() != 0 {
		t.Errorf("invalidated = %d, want 0 for a startup run", source.invalidated.Load())
	}
}

func TestConfigRefreshTask_RecordsFailure(t *testing.T) {
	s := newScheduler(t)
	source := &fakeConfigSource{err: errors.New("upstream down")}
	if err := RegisterConfigRefreshTask(s, source); err != nil {
		t.Fatalf("register error = %v", err)
	}

	if err := s.RunNow("tmdb-config-refresh"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	info := waitIdle(t, s, "tmdb-config-refresh")

	if info.LastError == "" {
		t.Error("LastError is empty after a failed refresh")
	}
}
