package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/storage"
)

// OutboxStore is the notification slice of the repository.
type OutboxStore interface {
	GetNotification(ctx context.Context, id string) (storage.Notification, error)
	PendingNotifications(ctx context.Context, limit int) ([]storage.Notification, error)
	MarkNotificationSent(ctx context.Context, id string) error
	MarkNotificationError(ctx context.Context, id string) error
}

// Sender delivers a notification to the user.
type Sender interface {
	Send(ctx context.Context, n storage.Notification) error
}

// LogSender writes notifications to the log. It stands in when no delivery
// channel is configured, keeping the outbox draining in development.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, n storage.Notification) error {
	slog.InfoContext(ctx, "Notification delivered to log",
		"id", n.ID, "kind", n.Kind, "subject", n.Subject)
	return nil
}

// NotifyWorker drains the notification outbox, both from AMQP messages and
// from a periodic rescan that catches rows whose publish was lost.
type NotifyWorker struct {
	outbox    OutboxStore
	sender    Sender
	batchSize int
}

func NewNotifyWorker(outbox OutboxStore, sender Sender, batchSize int) *NotifyWorker {
	if sender == nil {
		sender = LogSender{}
	}
	return &NotifyWorker{outbox: outbox, sender: sender, batchSize: batchSize}
}

// HandleMessage processes one queued notification reference.
func (w *NotifyWorker) HandleMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	n, err := w.outbox.GetNotification(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Notification message references missing row", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get notification: %w", err)
	}
	if n.Status != "pending" {
		slog.DebugContext(ctx, "Notification already handled", "id", n.ID, "status", n.Status)
		return nil
	}
	return w.deliver(ctx, n)
}

// ProcessPending delivers pending outbox rows directly. This is the backup
// path for rows whose AMQP publish failed.
func (w *NotifyWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.outbox.PendingNotifications(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("pending notifications: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending notifications", "count", len(pending))

	for _, n := range pending {
		if err := w.deliver(ctx, n); err != nil {
			slog.ErrorContext(ctx, "Failed to deliver notification", "id", n.ID, "error", err)
		}
	}
	return nil
}

func (w *NotifyWorker) deliver(ctx context.Context, n storage.Notification) error {
	if err := w.sender.Send(ctx, n); err != nil {
		if markErr := w.outbox.MarkNotificationError(ctx, n.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark notification error", "id", n.ID, "error", markErr)
		}
		return fmt.Errorf("send notification: %w", err)
	}

	if err := w.outbox.MarkNotificationSent(ctx, n.ID); err != nil {
		// The send succeeded; a failed mark only risks a duplicate later.
		slog.ErrorContext(ctx, "Failed to mark notification sent", "id", n.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Notification sent", "id", n.ID, "kind", n.Kind)
	return nil
}
