package usecase

import (
	"context"
	"log/slog"
	"time"

	"smartfeeds/internal/ports"
)

// Scheduler runs the full pipeline whenever the underlying schedule fires.
type Scheduler struct {
	sched    ports.Scheduler
	pipeline *Pipeline
	log      *slog.Logger
}

func NewScheduler(sched ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{sched: sched, pipeline: pipeline, log: logger.With("component", "scheduler")}
}

// Start begins scheduled processing and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.sched.Start(ctx, func(now time.Time) {
		s.log.Info("scheduled run started", "time", now.Format(time.RFC3339))
		if err := s.pipeline.ProcessDay(ctx, now); err != nil {
			s.log.Error("scheduled run failed", "error", err)
			return
		}
		s.log.Info("scheduled run finished")
	})
}

// Stop shuts the schedule down, waiting for an in-flight run.
func (s *Scheduler) Stop(ctx context.Context) error {
	return s.sched.Stop(ctx)
}
