package service

import (
	"context"
	"time"

	"github.com/BerniceZTT/feedback_end/utils"
)

// ScheduleDailyTaskAt runs task every day at hour:min:sec local time until
// ctx is cancelled.
func ScheduleDailyTaskAt(ctx context.Context, hour, min, sec int, task func(context.Context)) {
	go func() {
		for {
			timer := time.NewTimer(time.Until(nextDailyRun(time.Now(), hour, min, sec)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				task(ctx)
			}
		}
	}()
}

// nextDailyRun is the first hour:min:sec strictly after now.
func nextDailyRun(now time.Time, hour, min, sec int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, sec, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// OperationLogPruner is the log store side of the retention job.
type OperationLogPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LogRetention drops operation logs older than a fixed window.
type LogRetention struct {
	logs   OperationLogPruner
	window time.Duration
	now    func() time.Time
}

// NewLogRetention keeps logs for days days.
func NewLogRetention(logs OperationLogPruner, days int) *LogRetention {
	return &LogRetention{
		logs:   logs,
		window: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
}

// Prune removes the expired entries. Failures are logged; the next run
// retries.
func (r *LogRetention) Prune(ctx context.Context) {
	cutoff := r.now().Add(-r.window)
	utils.Logger.Info().Time("cutoff", cutoff).Msg("pruning operation logs")

	removed, err := r.logs.DeleteBefore(ctx, cutoff)
	if err != nil {
		utils.Logger.Error().Err(err).Msg("prune operation logs failed")
		return
	}
	utils.Logger.Info().Int64("removed", removed).Msg("operation logs pruned")
}
