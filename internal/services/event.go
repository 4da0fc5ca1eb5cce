package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/models"
)

var ErrInvalidRSVPStatus = errors.New("invalid rsvp status")

type EventService struct {
	db       DB
	notifier NotificationCreator
}

func NewEventService(db DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) SetNotificationService(n NotificationCreator) {
	s.notifier = n
}

func (s *EventService) Create(ctx context.Context, hostID uuid.UUID, params models.CreateEventParams) (*models.Event, error) {
	token, err := generateShareToken()
	if err != nil {
		return nil, err
	}

	event := &models.Event{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO events (created_by, title, notes, location, place_id, starts_at, ends_at, share_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_by, title, notes, location, place_id, starts_at, ends_at, share_token, created_at, updated_at`,
		hostID, params.Title, params.Notes, params.Location, params.PlaceID, params.StartsAt, params.EndsAt, token,
	).Scan(&event.ID, &event.CreatedBy, &event.Title, &event.Notes, &event.Location, &event.PlaceID,
		&event.StartsAt, &event.EndsAt, &event.ShareToken, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return event, nil
}

func (s *EventService) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return s.getBy(ctx, "id = $1", eventID)
}

func (s *EventService) GetByShareToken(ctx context.Context, token string) (*models.Event, error) {
	return s.getBy(ctx, "share_token = $1", token)
}

func (s *EventService) getBy(ctx context.Context, cond string, arg any) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.QueryRow(ctx,
		`SELECT id, created_by, title, notes, location, place_id, starts_at, ends_at, share_token, created_at, updated_at
		 FROM events WHERE `+cond,
		arg,
	).Scan(&event.ID, &event.CreatedBy, &event.Title, &event.Notes, &event.Location, &event.PlaceID,
		&event.StartsAt, &event.EndsAt, &event.ShareToken, &event.CreatedAt, &event.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	return event, nil
}

// ListForUser returns events the user hosts, is invited to, or has RSVP'd
// to, newest start time first.
func (s *EventService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT e.id, e.created_by, e.title, e.notes, e.location, e.place_id, e.starts_at, e.ends_at, e.share_token, e.created_at, e.updated_at
		 FROM events e
		 LEFT JOIN event_members em ON em.event_id = e.id AND em.user_id = $1
		 LEFT JOIN rsvps r ON r.event_id = e.id AND r.user_id = $1
		 WHERE e.created_by = $1 OR em.id IS NOT NULL OR r.id IS NOT NULL
		 ORDER BY e.starts_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.CreatedBy, &e.Title, &e.Notes, &e.Location, &e.PlaceID,
			&e.StartsAt, &e.EndsAt, &e.ShareToken, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RSVPByShareToken records an RSVP from a public share link. No
// event_members row is required; the reconciled invitation view folds
// these in as direct entries.
func (s *EventService) RSVPByShareToken(ctx context.Context, token string, userID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error) {
	switch status {
	case models.RSVPStatusGoing, models.RSVPStatusMaybe, models.RSVPStatusNotGoing:
	default:
		return nil, ErrInvalidRSVPStatus
	}

	event, err := s.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.upsertRSVP(ctx, event.ID, userID, status)
}

func (s *EventService) upsertRSVP(ctx context.Context, eventID, userID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error) {
	rsvp := &models.RSVP{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO rsvps (event_id, user_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (event_id, user_id) DO UPDATE SET status = EXCLUDED.status, responded_at = NOW()
		 RETURNING id, event_id, user_id, status, responded_at`,
		eventID, userID, string(status),
	).Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Status, &rsvp.RespondedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert rsvp: %w", err)
	}
	return rsvp, nil
}

// RespondToInvite applies the pending -> accepted/declined transition for
// an event invitation. The payload's invitation_id is used when present;
// otherwise the pending event_members row for (event_id, user) resolves
// it. Accepting records a "going" RSVP, declining "not_going", so the
// reconciled view reflects the answer immediately.
func (s *EventService) RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.EventMember, error) {
	invitationID, err := s.resolveInvitationID(ctx, userID, data)
	if err != nil {
		return nil, err
	}

	status := models.InviteStatusDeclined
	if accept {
		status = models.InviteStatusAccepted
	}

	member := &models.EventMember{}
	err = s.db.QueryRow(ctx,
		`UPDATE event_members
		 SET status = $1, responded_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = 'pending'
		 RETURNING id, event_id, user_id, status, invitation_type, crew_id, invited_by, invited_at, responded_at`,
		string(status), invitationID, userID,
	).Scan(&member.ID, &member.EventID, &member.UserID, &member.Status, &member.InvitationType,
		&member.CrewID, &member.InvitedBy, &member.InvitedAt, &member.RespondedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteAlreadyResponded
	}
	if err != nil {
		return nil, fmt.Errorf("responding to event invite: %w", err)
	}

	rsvpStatus := models.RSVPStatusNotGoing
	if accept {
		rsvpStatus = models.RSVPStatusGoing
	}
	if _, err := s.upsertRSVP(ctx, member.EventID, userID, rsvpStatus); err != nil {
		return nil, err
	}

	s.notifyResponse(ctx, member, accept)

	return member, nil
}

func (s *EventService) resolveInvitationID(ctx context.Context, userID uuid.UUID, data models.NotificationData) (uuid.UUID, error) {
	if id := data.UUIDField("invitation_id"); id != nil {
		return *id, nil
	}

	if eventID := data.UUIDField("event_id"); eventID != nil {
		var id uuid.UUID
		err := s.db.QueryRow(ctx,
			`SELECT id FROM event_members
			 WHERE event_id = $1 AND user_id = $2 AND status = 'pending'`,
			*eventID, userID,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("resolving invitation: %w", err)
		}
	}

	return uuid.Nil, ErrInviteReferenceMissing
}

func (s *EventService) notifyResponse(ctx context.Context, member *models.EventMember, accepted bool) {
	// invited_by is SET NULL when the inviter's account is deleted, so
	// there may be nobody left to notify.
	if s.notifier == nil || member.InvitedBy == nil {
		return
	}

	var eventTitle, responderName string
	err := s.db.QueryRow(ctx,
		`SELECT e.title, u.display_name
		 FROM events e, users u
		 WHERE e.id = $1 AND u.id = $2`,
		member.EventID, member.UserID,
	).Scan(&eventTitle, &responderName)
	if err != nil {
		logging.Error("Failed to load event response context", map[string]interface{}{"error": err.Error()})
		return
	}

	verb := "can't make"
	if accepted {
		verb = "is coming to"
	}
	data := models.NotificationData{
		"event_id":    member.EventID.String(),
		"event_title": eventTitle,
	}
	message := fmt.Sprintf("%s %s %s", responderName, verb, eventTitle)
	if _, err := s.notifier.Create(ctx, *member.InvitedBy, models.NotificationTypeEventResponse, "RSVP update", message, data); err != nil {
		logging.Error("Failed to create event response notification", map[string]interface{}{"error": err.Error()})
	}
}

func generateShareToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
