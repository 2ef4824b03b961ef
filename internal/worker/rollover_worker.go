package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// RolloverWorker seeds each new month's fixed-expense checklist from the
// previous month. RollOver itself is idempotent, so the worker can run on
// any schedule.
type RolloverWorker struct {
	fixed *services.FixedExpenseService
}

func NewRolloverWorker(fixed *services.FixedExpenseService) *RolloverWorker {
	return &RolloverWorker{fixed: fixed}
}

// RunOnce rolls the previous month's fixed expenses into the month
// containing now.
func (w *RolloverWorker) RunOnce(ctx context.Context, now time.Time) error {
	current := core.NewDate(now.Year(), int(now.Month()), 1)
	previous := core.Date{Time: current.AddDate(0, -1, 0)}

	copied, err := w.fixed.RollOver(ctx, previous, current)
	if err != nil {
		return fmt.Errorf("roll over fixed expenses: %w", err)
	}
	if copied > 0 {
		slog.InfoContext(ctx, "Monthly rollover completed",
			"month", current.Format("2006-01"), "count", copied)
	}
	return nil
}

// Run executes RunOnce immediately and then on every tick until the context
// is cancelled.
func (w *RolloverWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.RunOnce(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Rollover failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Rollover failed", "error", err)
			}
		}
	}
}
