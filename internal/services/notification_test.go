package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thirstee-app/thirstee/internal/models"
)

type fakeEmailSender struct {
	sent []SendEmailParams
	err  error
}

func (e *fakeEmailSender) Send(ctx context.Context, params SendEmailParams) (string, error) {
	e.sent = append(e.sent, params)
	if e.err != nil {
		return "", e.err
	}
	return "msg_123", nil
}

func notificationRow(id, userID uuid.UUID, nType, title string, data []byte, readAt *time.Time) []any {
	return []any{id, userID, nType, title, "", data, readAt, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func TestNotificationService_List_ClampsLimit(t *testing.T) {
	userID := uuid.New()

	var gotArgs []any
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			gotArgs = args
			return rowsFromValues(), nil
		},
	}

	svc := NewNotificationService(db, nil)
	for _, limit := range []int{0, -5, 1000} {
		if _, err := svc.List(context.Background(), userID, NotificationListParams{Limit: limit}); err != nil {
			t.Fatalf("List(limit=%d): %v", limit, err)
		}
		if gotArgs[len(gotArgs)-1] != 50 {
			t.Errorf("limit %d should clamp to 50, query used %v", limit, gotArgs[len(gotArgs)-1])
		}
	}
}

func TestNotificationService_List_FiltersPropagate(t *testing.T) {
	userID := uuid.New()
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var gotSQL string
	var gotArgs []any
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			gotSQL = sql
			gotArgs = args
			return rowsFromValues(), nil
		},
	}

	svc := NewNotificationService(db, nil)
	got, err := svc.List(context.Background(), userID, NotificationListParams{Limit: 10, Before: &before, UnreadOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil {
		t.Error("empty list must be non-nil")
	}

	if !strings.Contains(gotSQL, "created_at < $2") || !strings.Contains(gotSQL, "read_at IS NULL") {
		t.Errorf("filters missing from query: %s", gotSQL)
	}
	if len(gotArgs) != 3 || gotArgs[1] != before || gotArgs[2] != 10 {
		t.Errorf("unexpected args %v", gotArgs)
	}
}

func TestNotificationService_Get_ScopedToOwner(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if !strings.Contains(sql, "user_id = $2") {
				t.Errorf("lookup must be scoped to the owner: %s", sql)
			}
			return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}

	svc := NewNotificationService(db, nil)
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestNotificationService_MarkRead_FirstReadUpdates(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rows: 1}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			t.Fatal("existence check must be skipped when the update matched")
			return nil
		},
	}

	svc := NewNotificationService(db, nil)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
}

func TestNotificationService_MarkRead_SecondReadIsIdempotent(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			// read_at already set, guarded update matches nothing.
			return fakeCommandTag{rows: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
	}

	svc := NewNotificationService(db, nil)
	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("second MarkRead must succeed, got %v", err)
	}
}

func TestNotificationService_MarkRead_UnknownNotification(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rows: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(false)
		},
	}

	svc := NewNotificationService(db, nil)
	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestNotificationService_UnreadCount_FloorsAtZero(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(-3)
		},
	}

	svc := NewNotificationService(db, nil)
	count, err := svc.UnreadCount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestNotificationService_Create_InvitationDispatchesEmail(t *testing.T) {
	userID := uuid.New()
	notifID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT email") {
				return rowFromValues("ada@example.com")
			}
			return rowFromValues(notificationRow(notifID, userID, "event_invitation", "You're invited 🍻", []byte(`{"event_id":"abc"}`), nil)...)
		},
	}

	sender := &fakeEmailSender{}
	svc := NewNotificationService(db, sender)
	svc.SetAsync(func(fn func()) { fn() })

	data := models.NotificationData{"event_id": "abc"}
	n, err := svc.Create(context.Background(), userID, models.NotificationTypeEventInvitation, "You're invited 🍻", "Hana invited you", data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Data["event_id"] != "abc" {
		t.Errorf("decoded data %v", n.Data)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	email := sender.sent[0]
	if email.To != "ada@example.com" {
		t.Errorf("email to %q", email.To)
	}
	if email.Type != models.EmailTypeEventInvitation {
		t.Errorf("email type %q", email.Type)
	}
}

func TestNotificationService_Create_ResponseTypeSendsNoEmail(t *testing.T) {
	userID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(notificationRow(uuid.New(), userID, "event_response", "Crew update", nil, nil)...)
		},
	}

	sender := &fakeEmailSender{}
	svc := NewNotificationService(db, sender)
	svc.SetAsync(func(fn func()) { fn() })

	if _, err := svc.Create(context.Background(), userID, models.NotificationTypeEventResponse, "Crew update", "Ada is going", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("response notifications must not email, got %d", len(sender.sent))
	}
}

func TestNotificationService_Create_EmailFailureDoesNotFailCreate(t *testing.T) {
	userID := uuid.New()

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT email") {
				return rowFromValues("ada@example.com")
			}
			return rowFromValues(notificationRow(uuid.New(), userID, "crew_invitation", "Crew invitation", nil, nil)...)
		},
	}

	sender := &fakeEmailSender{err: errors.New("provider down")}
	svc := NewNotificationService(db, sender)
	svc.SetAsync(func(fn func()) { fn() })

	n, err := svc.Create(context.Background(), userID, models.NotificationTypeCrewInvitation, "Crew invitation", "join us", nil)
	if err != nil {
		t.Fatalf("Create must not surface email failure, got %v", err)
	}
	if n == nil {
		t.Fatal("notification missing")
	}
}
