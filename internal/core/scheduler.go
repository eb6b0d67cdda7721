package core

// scheduler.go runs background maintenance for migration jobs.
//
// The stale-stage sweeper looks for stages stuck in processing, which
// happens when the process driving a run crashes or is killed. Such stages
// are moved to error with an "interrupted" message so they can be retried.
// Jobs this process is currently driving are excluded.

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper defaults.
const (
	DefaultStaleStageAfter = 30 * time.Minute
	DefaultSweepInterval   = 5 * time.Minute
)

// InterruptedReason is recorded on stages failed by the sweeper.
const InterruptedReason = "interrupted: stage was still processing when its run stopped"

// SweepConfig holds configuration for the stale-stage sweeper.
type SweepConfig struct {
	StaleAfter    time.Duration // processing longer than this is stale (default: 30m)
	CheckInterval time.Duration // how often to run (default: 5m)
}

// StartStaleStageSweeper periodically fails stale processing stages. It
// runs immediately on start, then every CheckInterval, and stops when ctx
// is cancelled.
func (s *Service) StartStaleStageSweeper(ctx context.Context, cfg SweepConfig) {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleStageAfter
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultSweepInterval
	}
	slog.Info("stale stage sweeper started",
		"stale_after", cfg.StaleAfter.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.SweepStaleStages(ctx, cfg.StaleAfter)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stale stage sweeper stopped")
			return
		case <-ticker.C:
			s.SweepStaleStages(ctx, cfg.StaleAfter)
		}
	}
}

// SweepStaleStages performs one sweep and returns how many stages it failed.
func (s *Service) SweepStaleStages(ctx context.Context, staleAfter time.Duration) int {
	start := time.Now()
	cutoff := s.opts.Now().Add(-staleAfter)

	n, err := s.jobs.FailStaleStages(ctx, cutoff, InterruptedReason, s.ActiveJobs())
	if err != nil {
		slog.Error("stale stage sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		slog.Warn("failed stale stages",
			"stages", n,
			"cutoff", cutoff,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		slog.Debug("stale stage sweep found nothing")
	}
	return n
}
