package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arunprabus/health-api/pkg/logger"
)

// Task is one unit of periodic work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	task       Task
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current run
	mu         sync.Mutex         // protects cancelFunc
}

func New(task Task, interval time.Duration) *Scheduler {
	return &Scheduler{
		task:     task,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "task", s.task.Name, "interval", s.interval)
}

// Stop cancels a run in progress and waits for the loop to exit. Safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
		logger.Info("scheduler stopped", "module", "scheduler", "task", s.task.Name)
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.execute()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.execute()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) execute() {
	// A run may take at most one interval.
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := s.task.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			logger.Info("scheduled task cancelled", "module", "scheduler", "task", s.task.Name)
			return
		}
		logger.Error("scheduled task", "module", "scheduler", "task", s.task.Name, "result", "failed", "error", err)
		return
	}
	logger.Debug("scheduled task completed", "module", "scheduler", "task", s.task.Name, "result", "ok", "duration_ms", time.Since(start).Milliseconds())
}
