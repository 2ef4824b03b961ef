package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/storage"
)

type fakeOutbox struct {
	rows map[string]*storage.Notification
}

func newFakeOutbox(rows ...storage.Notification) *fakeOutbox {
	f := &fakeOutbox{rows: make(map[string]*storage.Notification)}
	for i := range rows {
		r := rows[i]
		f.rows[r.ID] = &r
	}
	return f
}

func (f *fakeOutbox) GetNotification(ctx context.Context, id string) (storage.Notification, error) {
	if n, ok := f.rows[id]; ok {
		return *n, nil
	}
	return storage.Notification{}, storage.ErrNotFound
}

func (f *fakeOutbox) PendingNotifications(ctx context.Context, limit int) ([]storage.Notification, error) {
	var out []storage.Notification
	for _, n := range f.rows {
		if n.Status == "pending" && len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkNotificationSent(ctx context.Context, id string) error {
	if n, ok := f.rows[id]; ok {
		n.Status = "sent"
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeOutbox) MarkNotificationError(ctx context.Context, id string) error {
	if n, ok := f.rows[id]; ok {
		n.Status = "error"
		return nil
	}
	return storage.ErrNotFound
}

type fakeSender struct {
	sent []string
	fail bool
}

func (f *fakeSender) Send(ctx context.Context, n storage.Notification) error {
	if f.fail {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, n.ID)
	return nil
}

func pendingRow(id string) storage.Notification {
	return storage.Notification{
		ID:        id,
		Kind:      "budget_alert",
		Subject:   "subject",
		Body:      "body",
		Status:    "pending",
		CreatedAt: time.Now(),
	}
}

func TestNotifyWorker_HandleMessage(t *testing.T) {
	outbox := newFakeOutbox(pendingRow("n-1"))
	sender := &fakeSender{}
	w := NewNotifyWorker(outbox, sender, 10)

	msg := &amqp.NotificationMessage{ID: "n-1", Kind: "budget_alert"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "n-1" {
		t.Errorf("sent = %v, want [n-1]", sender.sent)
	}
	if outbox.rows["n-1"].Status != "sent" {
		t.Errorf("status = %q, want sent", outbox.rows["n-1"].Status)
	}
}

func TestNotifyWorker_HandleMessageMissingRow(t *testing.T) {
	w := NewNotifyWorker(newFakeOutbox(), &fakeSender{}, 10)

	msg := &amqp.NotificationMessage{ID: "ghost"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Errorf("HandleMessage() for a missing row should not error, got %v", err)
	}
}

func TestNotifyWorker_HandleMessageAlreadySent(t *testing.T) {
	row := pendingRow("n-1")
	row.Status = "sent"
	outbox := newFakeOutbox(row)
	sender := &fakeSender{}
	w := NewNotifyWorker(outbox, sender, 10)

	msg := &amqp.NotificationMessage{ID: "n-1"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("already-sent notification was delivered again: %v", sender.sent)
	}
}

func TestNotifyWorker_SendFailureMarksError(t *testing.T) {
	outbox := newFakeOutbox(pendingRow("n-1"))
	w := NewNotifyWorker(outbox, &fakeSender{fail: true}, 10)

	msg := &amqp.NotificationMessage{ID: "n-1"}
	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("HandleMessage() should propagate delivery failure")
	}
	if outbox.rows["n-1"].Status != "error" {
		t.Errorf("status = %q, want error", outbox.rows["n-1"].Status)
	}
}

func TestNotifyWorker_ProcessPending(t *testing.T) {
	outbox := newFakeOutbox(pendingRow("n-1"), pendingRow("n-2"))
	sender := &fakeSender{}
	w := NewNotifyWorker(outbox, sender, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(sender.sent) != 2 {
		t.Errorf("sent %d notifications, want 2", len(sender.sent))
	}
	for id, n := range outbox.rows {
		if n.Status != "sent" {
			t.Errorf("row %s status = %q, want sent", id, n.Status)
		}
	}
}
