package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/core"
)

// NotificationOutbox persists notifications before they go on the wire.
type NotificationOutbox interface {
	EnqueueNotification(ctx context.Context, kind, subject, body string) (string, error)
}

// NotificationPublisher pushes an outbox reference to the message queue.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, id, kind string) error
}

// ActivityReader reports when the last transaction was recorded. The zero
// time means no transaction exists yet.
type ActivityReader interface {
	LatestTransactionTime(ctx context.Context) (time.Time, error)
}

const (
	notifyBudgetAlert = "budget_alert"
	notifyInactivity  = "inactivity"
)

// AlertScanner turns budget overruns and user inactivity into queued
// notifications. Each budget alerts at most once per resolved period.
type AlertScanner struct {
	budgets   *BudgetService
	activity  ActivityReader
	outbox    NotificationOutbox
	publisher NotificationPublisher

	threshold      float64
	inactivityDays int

	// alerted is process-local state (budget ID -> period start already
	// alerted). A restart forgets it, so at most one duplicate alert per
	// budget can be raised for the period in flight at that moment.
	mu      sync.Mutex
	alerted map[string]time.Time
}

func NewAlertScanner(budgets *BudgetService, activity ActivityReader, outbox NotificationOutbox, publisher NotificationPublisher, threshold float64, inactivityDays int) *AlertScanner {
	return &AlertScanner{
		budgets:        budgets,
		activity:       activity,
		outbox:         outbox,
		publisher:      publisher,
		threshold:      threshold,
		inactivityDays: inactivityDays,
		alerted:        make(map[string]time.Time),
	}
}

// ScanBudgets enqueues an alert for every active budget at or above the
// threshold percentage. Returns the number of alerts raised.
func (s *AlertScanner) ScanBudgets(ctx context.Context, now time.Time) (int, error) {
	progress, err := s.budgets.ProgressAll(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("compute budget progress: %w", err)
	}

	raised := 0
	for _, p := range progress {
		if p.Progress.Percentage < s.threshold {
			continue
		}
		periodStart := core.ResolvePeriod(p.Budget.Period, now).Start
		if s.alreadyAlerted(p.Budget.ID, periodStart) {
			continue
		}

		subject := fmt.Sprintf("Presupuesto %q al %.0f%%", p.Budget.Name, p.Progress.Percentage)
		body := fmt.Sprintf("Gastaste %s de %s en el periodo actual.",
			p.Progress.Spent.PlainString(), p.Budget.Amount.PlainString())

		if err := s.dispatch(ctx, notifyBudgetAlert, subject, body); err != nil {
			return raised, err
		}
		s.markAlerted(p.Budget.ID, periodStart)
		raised++

		slog.InfoContext(ctx, "Budget alert raised",
			"budget_id", p.Budget.ID,
			"budget_name", p.Budget.Name,
			"percentage", p.Progress.Percentage)
	}
	return raised, nil
}

// ScanInactivity enqueues a reminder when no transaction has been recorded
// for the configured number of days. Reports whether a reminder was raised.
func (s *AlertScanner) ScanInactivity(ctx context.Context, now time.Time) (bool, error) {
	last, err := s.activity.LatestTransactionTime(ctx)
	if err != nil {
		return false, fmt.Errorf("latest transaction time: %w", err)
	}
	if last.IsZero() {
		return false, nil
	}

	idle := now.Sub(last)
	if idle < time.Duration(s.inactivityDays)*24*time.Hour {
		return false, nil
	}

	days := int(idle.Hours() / 24)
	subject := "Hace días que no registrás gastos"
	body := fmt.Sprintf("Tu último movimiento fue hace %d días. Registrá tus gastos para mantener tus reportes al día.", days)

	if err := s.dispatch(ctx, notifyInactivity, subject, body); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Inactivity reminder raised", "idle_days", days)
	return true, nil
}

func (s *AlertScanner) dispatch(ctx context.Context, kind, subject, body string) error {
	id, err := s.outbox.EnqueueNotification(ctx, kind, subject, body)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	if s.publisher == nil {
		return nil
	}
	// A failed publish is not fatal: the outbox row stays pending and the
	// worker rescan picks it up.
	if err := s.publisher.PublishNotification(ctx, id, kind); err != nil {
		slog.WarnContext(ctx, "Publish failed, notification stays pending",
			"id", id, "kind", kind, "error", err)
	}
	return nil
}

func (s *AlertScanner) alreadyAlerted(budgetID string, periodStart time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := s.alerted[budgetID]
	return ok && start.Equal(periodStart)
}

func (s *AlertScanner) markAlerted(budgetID string, periodStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerted[budgetID] = periodStart
}
