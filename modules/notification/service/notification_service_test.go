package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"schedule-agent/core/constants"
	"schedule-agent/core/database"
	"schedule-agent/core/queue"
	"schedule-agent/core/utils"
	"schedule-agent/modules/notification/dto"
	"schedule-agent/modules/notification/entity"
	"schedule-agent/modules/notification/repository"

	"github.com/hibiken/asynq"
)

type stubSender struct {
	mu   sync.Mutex
	err  error
	sent []utils.EmailMessage
}

func (s *stubSender) Send(ctx context.Context, msg utils.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

type stubEnqueuer struct {
	types    []string
	payloads []any
	err      error
}

func (q *stubEnqueuer) Enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (string, error) {
	q.types = append(q.types, taskType)
	q.payloads = append(q.payloads, payload)
	return "task-1", q.err
}

func newTestRepository(t *testing.T) *repository.NotificationRepository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "notify.db") + "?_pragma=busy_timeout(5000)"
	db, err := database.InitDB(database.DatabaseConfig{Driver: constants.DatabaseDriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repository.NewNotificationRepository(db)
}

func TestSendInline(t *testing.T) {
	repo := newTestRepository(t)
	sender := &stubSender{}
	svc := NewNotificationService(repo, sender, nil)
	ctx := context.Background()

	if err := svc.Send(ctx, "ana@x.com", "Booking confirmed", "See you"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "ana@x.com" {
		t.Fatalf("sent = %+v", sender.sent)
	}

	items, err := svc.ListByRecipient(ctx, "ana@x.com", 10)
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	if len(items) != 1 || items[0].Status != entity.StatusSent || items[0].Attempts != 1 {
		t.Fatalf("items = %+v", items)
	}
}

func TestSendInlineFailureIsRecorded(t *testing.T) {
	repo := newTestRepository(t)
	sender := &stubSender{err: stderrors.New("smtp down")}
	svc := NewNotificationService(repo, sender, nil)
	ctx := context.Background()

	if err := svc.Send(ctx, "ana@x.com", "Booking confirmed", "See you"); err == nil {
		t.Fatalf("expected delivery error")
	}
	items, _ := svc.ListByRecipient(ctx, "ana@x.com", 10)
	if len(items) != 1 || items[0].Status != entity.StatusFailed || items[0].LastError != "smtp down" {
		t.Fatalf("items = %+v", items)
	}
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewNotificationService(repo, &stubSender{}, nil)

	if err := svc.Send(context.Background(), "not-an-email", "s", "b"); err == nil {
		t.Fatalf("expected invalid recipient error")
	}
}

func TestSendQueuedThenDelivered(t *testing.T) {
	repo := newTestRepository(t)
	sender := &stubSender{}
	q := &stubEnqueuer{}
	svc := NewNotificationService(repo, sender, q)
	ctx := context.Background()

	if err := svc.Send(ctx, "ana@x.com", "Booking cancelled", "Bye"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("queued email must not be sent inline")
	}
	if len(q.types) != 1 || q.types[0] != queue.TaskSendEmail {
		t.Fatalf("enqueued = %v", q.types)
	}

	raw, err := json.Marshal(q.payloads[0])
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := svc.HandleSendEmailTask(ctx, asynq.NewTask(queue.TaskSendEmail, raw)); err != nil {
		t.Fatalf("HandleSendEmailTask: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}

	// Redelivery of a sent notification is a no-op.
	var payload dto.SendEmailPayload
	_ = json.Unmarshal(raw, &payload)
	if err := svc.Deliver(ctx, payload.NotificationID); err != nil {
		t.Fatalf("Deliver again: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d after redelivery", len(sender.sent))
	}
}

func TestSendFallsBackInlineWhenEnqueueFails(t *testing.T) {
	repo := newTestRepository(t)
	sender := &stubSender{}
	svc := NewNotificationService(repo, sender, &stubEnqueuer{err: stderrors.New("redis down")})

	if err := svc.Send(context.Background(), "ana@x.com", "s", "b"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected inline fallback delivery")
	}
}

func TestDeliverUnknownSkipsRetry(t *testing.T) {
	repo := newTestRepository(t)
	svc := NewNotificationService(repo, &stubSender{}, nil)

	err := svc.Deliver(context.Background(), "missing")
	if !stderrors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}
