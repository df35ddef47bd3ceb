// Package scheduler runs recurring background tasks on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a named unit of recurring work.
type Task struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run inherits the scheduler context.
	Timeout time.Duration
	// RunOnStart runs the task once immediately instead of waiting a full interval.
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// Scheduler runs each task in its own goroutine. A task never overlaps with
// itself: ticks that arrive while it is running are dropped.
type Scheduler struct {
	logger *slog.Logger
	tasks  []Task
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Add registers a task. It must be called before Run.
func (s *Scheduler) Add(t Task) error {
	if t.Name == "" || t.Fn == nil {
		return fmt.Errorf("task needs a name and a function")
	}
	if t.Interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive", t.Name)
	}
	s.tasks = append(s.tasks, t)
	return nil
}

// Run starts every task and blocks until ctx is cancelled and all in-flight
// runs have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, t := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}
	s.logger.Info("scheduler started", "tasks", len(s.tasks))
	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	if t.RunOnStart {
		s.runOnce(ctx, t)
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	runCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task", t.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := t.Fn(runCtx); err != nil {
		s.logger.Error("task failed", "task", t.Name, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.logger.Debug("task complete", "task", t.Name, "duration_ms", time.Since(start).Milliseconds())
}
