package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduler_RegisterTask(t *testing.T) {
	s := newTestScheduler(t)
	cfg := TaskConfig{ID: "a", Name: "A", Cron: "0 0 * * *", Func: func(context.Context) error { return nil }}

	if err := s.RegisterTask(cfg); err != nil {
		t.Fatalf("RegisterTask() error = %v", err)
	}
	if err := s.RegisterTask(cfg); err == nil {
		t.Error("duplicate RegisterTask() error = nil")
	}
	if err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: cfg.Func}); err == nil {
		t.Error("invalid cron accepted")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	failing := errors.New("boom")
	_ = s.RegisterTask(TaskConfig{ID: "ok", Cron: "0 0 * * *", Func: func(context.Context) error {
		runs.Add(1)
		return nil
	}})
	_ = s.RegisterTask(TaskConfig{ID: "fail", Cron: "0 0 * * *", Func: func(context.Context) error {
		return failing
	}})
	s.Start()

	if err := s.RunNow("ok"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	waitFor(t, func() bool { return runs.Load() == 1 })

	if err := s.RunNow("fail"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	waitFor(t, func() bool {
		info, _ := s.GetTask("fail")
		return info.LastRun != nil
	})
	info, _ := s.GetTask("fail")
	if info.LastError != "boom" {
		t.Errorf("LastError = %q, want boom", info.LastError)
	}

	if err := s.RunNow("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("RunNow(missing) error = %v, want ErrTaskNotFound", err)
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	s := newTestScheduler(t)

	done := make(chan struct{})
	_ = s.RegisterTask(TaskConfig{ID: "warm", Cron: "0 0 * * *", RunOnStart: true, Func: func(context.Context) error {
		close(done)
		return nil
	}})
	s.Start()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnStart task did not run")
	}
}

func TestScheduler_ManualRunMarker(t *testing.T) {
	s := newTestScheduler(t)

	marks := make(chan bool, 2)
	_ = s.RegisterTask(TaskConfig{ID: "mark", Cron: "0 0 * * *", RunOnStart: true, Func: func(ctx context.Context) error {
		marks <- IsManualRun(ctx)
		return nil
	}})
	s.Start()

	select {
	case manual := <-marks:
		if manual {
			t.Error("startup run reported as manual")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunOnStart task did not run")
	}

	waitFor(t, func() bool {
		info, _ := s.GetTask("mark")
		return info.LastRun != nil && !info.Running
	})
	if err := s.RunNow("mark"); err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	select {
	case manual := <-marks:
		if !manual {
			t.Error("RunNow run not reported as manual")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunNow task did not run")
	}
}

func TestScheduler_ListTasksSorted(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }
	for _, id := range []string{"c", "a", "b"} {
		_ = s.RegisterTask(TaskConfig{ID: id, Cron: "0 0 * * *", Func: noop})
	}

	tasks := s.ListTasks()
	if len(tasks) != 3 || tasks[0].ID != "a" || tasks[2].ID != "c" {
		t.Errorf("ListTasks() = %+v", tasks)
	}
	if _, err := s.GetTask("zzz"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("GetTask(zzz) error = %v, want ErrTaskNotFound", err)
	}
}
