package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskRunning  = errors.New("task is already running")
)

// DefaultTaskTimeout bounds a single task run.
const DefaultTaskTimeout = 5 * time.Minute

type manualRunKey struct{}

// IsManualRun reports whether the task run was triggered through RunNow
// rather than by its cron schedule or RunOnStart.
func IsManualRun(ctx context.Context) bool {
	manual, _ := ctx.Value(manualRunKey{}).(bool)
	return manual
}

// TaskFunc is the function signature for scheduled tasks.
type TaskFunc func(ctx context.Context) error

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // standard 5-field cron expression
	Func        TaskFunc
	RunOnStart  bool
	Timeout     time.Duration
}

// TaskInfo describes a task for API responses.
type TaskInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cron        string     `json:"cron"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	Running     bool       `json:"running"`
}

type taskEntry struct {
	config    TaskConfig
	job       gocron.Job
	lastRun   *time.Time
	lastError string
	running   bool
}

// Scheduler runs registered tasks on cron schedules.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger

	mu      sync.RWMutex
	tasks   map[string]*taskEntry
	started bool
	wg      sync.WaitGroup
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
	}, nil
}

// RegisterTask registers a new scheduled task.
func (s *Scheduler) RegisterTask(cfg TaskConfig) error {
	if cfg.Func == nil {
		return fmt.Errorf("task %q has no function", cfg.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[cfg.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", cfg.ID)
	}

	id := cfg.ID
	job, err := s.gocron.NewJob(
		gocron.CronJob(cfg.Cron, false),
		gocron.NewTask(func() { s.run(id, false) }),
		gocron.WithName(cfg.Name),
		gocron.WithTags(cfg.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job for task %q: %w", cfg.ID, err)
	}

	s.tasks[cfg.ID] = &taskEntry{config: cfg, job: job}

	s.logger.Info().
		Str("id", cfg.ID).
		Str("cron", cfg.Cron).
		Bool("runOnStart", cfg.RunOnStart).
		Msg("Registered task")

	return nil
}

// run executes a task unless it is already running.
func (s *Scheduler) run(taskID string, manual bool) {
	s.mu.Lock()
	entry, exists := s.tasks[taskID]
	if !exists || entry.running {
		s.mu.Unlock()
		return
	}
	entry.running = true
	s.mu.Unlock()

	timeout := entry.config.Timeout
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), manualRunKey{}, manual), timeout)
	defer cancel()

	start := time.Now()
	err := entry.config.Func(ctx)
	duration := time.Since(start)

	s.mu.Lock()
	entry.running = false
	entry.lastRun = &start
	entry.lastError = ""
	if err != nil {
		entry.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Str("id", taskID).Dur("duration", duration).Msg("Task failed")
		return
	}
	s.logger.Debug().Str("id", taskID).Dur("duration", duration).Msg("Task completed")
}

// Start starts the scheduler and runs tasks configured with RunOnStart.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.gocron.Start()

	s.mu.Lock()
	s.started = true
	var startup []string
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			startup = append(startup, id)
		}
	}
	s.mu.Unlock()

	for _, id := range startup {
		s.goRun(id, false)
	}
}

// Stop stops the scheduler and waits for manually triggered runs to finish.
func (s *Scheduler) Stop() error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	var err error
	if started {
		s.logger.Info().Msg("Stopping scheduler")
		err = s.gocron.Shutdown()
	}
	s.wg.Wait()
	return err
}

// RunNow triggers a task immediately.
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	entry, exists := s.tasks[taskID]
	running := exists && entry.running
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if running {
		return fmt.Errorf("%w: %q", ErrTaskRunning, taskID)
	}

	s.goRun(taskID, true)
	return nil
}

func (s *Scheduler) goRun(taskID string, manual bool) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(taskID, manual)
	}()
}

// ListTasks returns all registered tasks ordered by ID.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.info())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetTask returns information about a specific task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	info := entry.info()
	return &info, nil
}

func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		LastRun:     e.lastRun,
		LastError:   e.lastError,
		Running:     e.running,
	}
	if next, err := e.job.NextRun(); err == nil && !next.IsZero() {
		info.NextRun = &next
	}
	return info
}
