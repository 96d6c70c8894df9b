package backend

import (
	"context"
	"time"

	log "gopkg.in/inconshreveable/log15.v2"
)

type Runner interface {
	Run(ctx context.Context) (*RunResult, error)
}

// Scheduler runs a pipeline once a day. Runs never overlap and missed days are not caught up.
type Scheduler struct {
	runner Runner
	runAt  time.Duration
	logger log.Logger
	now    func() time.Time
}

// NewScheduler returns a scheduler that runs runner every day at runAt past midnight UTC.
func NewScheduler(runner Runner, runAt time.Duration, logger log.Logger) *Scheduler {
	return &Scheduler{runner: runner, runAt: runAt, logger: logger, now: time.Now}
}

// KeepDaily blocks until ctx is cancelled and returns ctx.Err(). A failed run is logged and does not stop the loop.
func (s *Scheduler) KeepDaily(ctx context.Context) error {
	for {
		next := nextRunTime(s.now(), s.runAt)
		s.logger.Info("waiting for next run", "at", next)

		if err := sleepUntil(ctx, next); err != nil {
			return err
		}

		result, err := s.runner.Run(ctx)
		if err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		} else {
			s.logger.Info("scheduled run succeeded", "run", result.RunID, "ids", result.IDs)
		}
	}
}

// nextRunTime returns the first time strictly after now that is runAt past a UTC midnight.
func nextRunTime(now time.Time, runAt time.Duration) time.Time {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	t := midnight.Add(runAt)
	if !t.After(now) {
		t = midnight.AddDate(0, 0, 1).Add(runAt)
	}
	return t
}

// sleepUntil sleeps until t or until ctx is done. If t is in the past it returns immediately.
func sleepUntil(ctx context.Context, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := time.NewTimer(time.Until(t))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
