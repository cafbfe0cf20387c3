package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/flood-risk/pkg/logger"
)

// Sweeper is the store side of the idle-session job.
type Sweeper interface {
	EvictIdle(maxIdle time.Duration) int
	Len() int
}

// SweepRecorder receives the result of each sweep.
type SweepRecorder interface {
	RecordSweep(evicted, remaining int)
}

// Scheduler periodically evicts idle sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	recorder  SweepRecorder
	maxIdle   time.Duration
	interval  time.Duration
	l         *logger.Logger
}

// New creates a new Scheduler.
func New(sweeper Sweeper, maxIdle, interval time.Duration, recorder SweepRecorder, l *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		recorder:  recorder,
		maxIdle:   maxIdle,
		interval:  interval,
		l:         l,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.Sweep); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Sweep runs one eviction pass.
func (s *Scheduler) Sweep() {
	evicted := s.sweeper.EvictIdle(s.maxIdle)
	remaining := s.sweeper.Len()

	if s.recorder != nil {
		s.recorder.RecordSweep(evicted, remaining)
	}
	if evicted > 0 {
		s.l.Info("evicted idle sessions", map[string]any{
			"evicted":   evicted,
			"remaining": remaining,
		})
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
