package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationListParams struct {
	Limit      int
	Before     *time.Time
	UnreadOnly bool
}

// NotificationService owns the notification rows and their single mutable
// transition (unread -> read). Rows are server truth; clients mirror them
// and reconcile on the next fetch.
type NotificationService struct {
	db           DB
	emailService EmailSenderInterface
	async        func(fn func())
	asyncCtx     context.Context
}

func NewNotificationService(db DB, emailService EmailSenderInterface) *NotificationService {
	return &NotificationService{
		db:           db,
		emailService: emailService,
		async: func(fn func()) {
			go fn()
		},
		asyncCtx: context.Background(),
	}
}

// SetAsync overrides the async runner used for email dispatch. Tests use
// this to run dispatch synchronously.
func (s *NotificationService) SetAsync(fn func(fn func())) {
	s.async = fn
}

func (s *NotificationService) SetAsyncContext(ctx context.Context) {
	if ctx == nil {
		s.asyncCtx = context.Background()
		return
	}
	s.asyncCtx = ctx
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	idx := 2

	if params.Before != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", idx))
		args = append(args, *params.Before)
		idx++
	}

	if params.UnreadOnly {
		conditions = append(conditions, "read_at IS NULL")
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, type, title, message, data, read_at, created_at
		 FROM notifications
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d`,
		strings.Join(conditions, " AND "),
		idx,
	)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) Get(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, user_id, type, title, message, data, read_at, created_at
		 FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	n, err := scanNotificationRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds.
// Only an unknown notification is an error.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		"UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL",
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)",
		notificationID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking notification: %w", err)
	}
	if !exists {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		"UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL",
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// Create inserts a notification and, for invitation types, dispatches the
// matching email asynchronously. The data payload carries the identifiers
// responders need (event_id, crew_id, crew_member_id, invitation_id).
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, nType models.NotificationType, title, message string, data models.NotificationData) (*models.Notification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding notification data: %w", err)
	}

	n := &models.Notification{}
	var raw []byte
	err = s.db.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, type, title, message, data, read_at, created_at`,
		userID, string(nType), title, message, payload,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			return nil, fmt.Errorf("decoding notification data: %w", err)
		}
	}

	if emailType, ok := notificationEmailType(nType); ok {
		s.dispatchEmail(userID, title, emailType, data)
	}

	return n, nil
}

func (s *NotificationService) dispatchEmail(userID uuid.UUID, subject string, emailType models.EmailType, data models.NotificationData) {
	if s.emailService == nil || s.async == nil {
		return
	}

	s.async(func() {
		baseCtx := s.asyncCtx
		if baseCtx == nil {
			baseCtx = context.Background()
		}
		ctx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
		defer cancel()

		var email string
		if err := s.db.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email); err != nil {
			logging.Error("Failed to load notification recipient", map[string]interface{}{"error": err.Error(), "user_id": userID.String()})
			return
		}

		if _, err := s.emailService.Send(ctx, SendEmailParams{
			To:      email,
			Subject: subject,
			Type:    emailType,
			Data:    map[string]any(data),
		}); err != nil {
			logging.Error("Failed to send notification email", map[string]interface{}{"error": err.Error(), "user_id": userID.String()})
		}
	})
}

func notificationEmailType(nType models.NotificationType) (models.EmailType, bool) {
	switch nType {
	case models.NotificationTypeEventInvitation:
		return models.EmailTypeEventInvitation, true
	case models.NotificationTypeCrewInvitation:
		return models.EmailTypeCrewInvitation, true
	case models.NotificationTypeEventReminder:
		return models.EmailTypeEventReminder, true
	default:
		return "", false
	}
}

func scanNotification(rows Rows) (*models.Notification, error) {
	n := &models.Notification{}
	var raw []byte
	if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning notification: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			return nil, fmt.Errorf("decoding notification data: %w", err)
		}
	}
	return n, nil
}

func scanNotificationRow(row Row) (*models.Notification, error) {
	n := &models.Notification{}
	var raw []byte
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.ReadAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &n.Data); err != nil {
			return nil, fmt.Errorf("decoding notification data: %w", err)
		}
	}
	return n, nil
}
