package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/models"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotEventHost       = errors.New("not the event host")
	ErrEventNotFound      = errors.New("event not found")
)

// InvitationService produces the reconciled invitation view for an event
// and manages invite creation and removal. The reconciled view merges
// direct invites, crew-mediated invites, and RSVP rows into one record
// per user.
type InvitationService struct {
	db       DB
	notifier NotificationCreator
}

func NewInvitationService(db DB) *InvitationService {
	return &InvitationService{db: db}
}

func (s *InvitationService) SetNotificationService(n NotificationCreator) {
	s.notifier = n
}

// EventInvitations merges direct invites, crew invites, and RSVPs for an
// event into a deduplicated list, newest first. A failure in any source
// query aborts the whole merge; partial views are never returned.
func (s *InvitationService) EventInvitations(ctx context.Context, eventID uuid.UUID) ([]models.EventInvitation, error) {
	direct, err := s.fetchMemberInvites(ctx, eventID, models.InvitationTypeDirect)
	if err != nil {
		return nil, fmt.Errorf("fetching direct invites: %w", err)
	}

	rsvps, err := s.fetchRSVPs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetching rsvps: %w", err)
	}

	crew, err := s.fetchMemberInvites(ctx, eventID, models.InvitationTypeCrew)
	if err != nil {
		return nil, fmt.Errorf("fetching crew invites: %w", err)
	}

	merged := mergeInvitations(direct, crew, rsvps)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].InvitedAt.After(merged[j].InvitedAt)
	})

	return merged, nil
}

// mergeInvitations seeds the result with direct and crew invites keyed by
// user, then folds in RSVPs: unknown users are added as direct entries,
// and a "going" RSVP always overwrites a stale invitation-table status.
func mergeInvitations(direct, crew []models.EventInvitation, rsvps []rsvpEntry) []models.EventInvitation {
	merged := make([]models.EventInvitation, 0, len(direct)+len(crew)+len(rsvps))
	byUser := make(map[uuid.UUID]int, len(direct)+len(crew))

	seed := func(inv models.EventInvitation) {
		if _, ok := byUser[inv.UserID]; ok {
			return
		}
		byUser[inv.UserID] = len(merged)
		merged = append(merged, inv)
	}
	for _, inv := range direct {
		seed(inv)
	}
	for _, inv := range crew {
		seed(inv)
	}

	for _, r := range rsvps {
		if i, ok := byUser[r.UserID]; ok {
			if r.Status == models.RSVPStatusGoing {
				merged[i].Status = string(models.RSVPStatusGoing)
			}
			continue
		}
		byUser[r.UserID] = len(merged)
		merged = append(merged, models.EventInvitation{
			UserID:         r.UserID,
			DisplayName:    r.DisplayName,
			Status:         string(r.Status),
			InvitationType: models.InvitationTypeDirect,
			InvitedAt:      r.RespondedAt,
		})
	}

	return merged
}

func (s *InvitationService) fetchMemberInvites(ctx context.Context, eventID uuid.UUID, invType models.InvitationType) ([]models.EventInvitation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT em.user_id, u.display_name, em.status, em.invited_at, c.name
		 FROM event_members em
		 JOIN users u ON em.user_id = u.id
		 LEFT JOIN crews c ON em.crew_id = c.id
		 WHERE em.event_id = $1 AND em.invitation_type = $2`,
		eventID, string(invType),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.EventInvitation
	for rows.Next() {
		inv := models.EventInvitation{InvitationType: invType}
		if err := rows.Scan(&inv.UserID, &inv.DisplayName, &inv.Status, &inv.InvitedAt, &inv.CrewName); err != nil {
			return nil, fmt.Errorf("scanning invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

type rsvpEntry struct {
	UserID      uuid.UUID
	DisplayName string
	Status      models.RSVPStatus
	RespondedAt time.Time
}

func (s *InvitationService) fetchRSVPs(ctx context.Context, eventID uuid.UUID) ([]rsvpEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT r.user_id, u.display_name, r.status, r.responded_at
		 FROM rsvps r
		 JOIN users u ON r.user_id = u.id
		 WHERE r.event_id = $1`,
		eventID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []rsvpEntry
	for rows.Next() {
		var e rsvpEntry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Status, &e.RespondedAt); err != nil {
			return nil, fmt.Errorf("scanning rsvp: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InviteUsers sends direct invites. Existing invitations are left alone,
// so re-inviting an already-invited user is a no-op for that user.
func (s *InvitationService) InviteUsers(ctx context.Context, hostID, eventID uuid.UUID, userIDs []uuid.UUID) (int, error) {
	event, err := s.requireHost(ctx, hostID, eventID)
	if err != nil {
		return 0, err
	}

	hostName, err := s.displayName(ctx, hostID)
	if err != nil {
		return 0, err
	}

	invited := 0
	for _, userID := range userIDs {
		if userID == hostID {
			continue
		}
		var invitationID uuid.UUID
		err := s.db.QueryRow(ctx,
			`INSERT INTO event_members (event_id, user_id, status, invitation_type, invited_by)
			 VALUES ($1, $2, 'pending', 'direct', $3)
			 ON CONFLICT (event_id, user_id) DO NOTHING
			 RETURNING id`,
			eventID, userID, hostID,
		).Scan(&invitationID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return invited, fmt.Errorf("insert invite: %w", err)
		}
		invited++
		s.notifyInvite(ctx, userID, event, invitationID, hostName, nil, "")
	}

	return invited, nil
}

// InviteCrew invites every accepted member of a crew to the event with
// invitation_type "crew".
func (s *InvitationService) InviteCrew(ctx context.Context, hostID, eventID, crewID uuid.UUID) (int, error) {
	event, err := s.requireHost(ctx, hostID, eventID)
	if err != nil {
		return 0, err
	}

	hostName, err := s.displayName(ctx, hostID)
	if err != nil {
		return 0, err
	}

	var crewName string
	err = s.db.QueryRow(ctx, "SELECT name FROM crews WHERE id = $1", crewID).Scan(&crewName)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrCrewNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("loading crew: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`INSERT INTO event_members (event_id, user_id, status, invitation_type, crew_id, invited_by)
		 SELECT $1, cm.user_id, 'pending', 'crew', $2, $3
		 FROM crew_members cm
		 WHERE cm.crew_id = $2 AND cm.status = 'accepted' AND cm.user_id <> $3
		 ON CONFLICT (event_id, user_id) DO NOTHING
		 RETURNING id, user_id`,
		eventID, crewID, hostID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert crew invites: %w", err)
	}
	defer rows.Close()

	type inserted struct {
		invitationID uuid.UUID
		userID       uuid.UUID
	}
	var all []inserted
	for rows.Next() {
		var ins inserted
		if err := rows.Scan(&ins.invitationID, &ins.userID); err != nil {
			return 0, fmt.Errorf("scanning crew invite: %w", err)
		}
		all = append(all, ins)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("insert crew invites: %w", err)
	}

	for _, ins := range all {
		s.notifyInvite(ctx, ins.userID, event, ins.invitationID, hostName, &crewID, crewName)
	}

	return len(all), nil
}

// RemoveInvitation deletes a user's invitation and any pending RSVP for
// the event. Callers re-run EventInvitations afterwards; there is no
// incremental update path.
func (s *InvitationService) RemoveInvitation(ctx context.Context, hostID, eventID, userID uuid.UUID) error {
	if _, err := s.requireHost(ctx, hostID, eventID); err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM event_members WHERE event_id = $1 AND user_id = $2",
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvitationNotFound
	}

	// A dangling RSVP would resurface the user in the reconciled view.
	if _, err := s.db.Exec(ctx,
		"DELETE FROM rsvps WHERE event_id = $1 AND user_id = $2",
		eventID, userID,
	); err != nil {
		return fmt.Errorf("removing rsvp: %w", err)
	}

	return nil
}

func (s *InvitationService) requireHost(ctx context.Context, hostID, eventID uuid.UUID) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.QueryRow(ctx,
		`SELECT id, created_by, title, starts_at FROM events WHERE id = $1`,
		eventID,
	).Scan(&event.ID, &event.CreatedBy, &event.Title, &event.StartsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event.CreatedBy != hostID {
		return nil, ErrNotEventHost
	}
	return event, nil
}

func (s *InvitationService) displayName(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	err := s.db.QueryRow(ctx, "SELECT display_name FROM users WHERE id = $1", userID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("loading user: %w", err)
	}
	return name, nil
}

func (s *InvitationService) notifyInvite(ctx context.Context, userID uuid.UUID, event *models.Event, invitationID uuid.UUID, hostName string, crewID *uuid.UUID, crewName string) {
	if s.notifier == nil {
		return
	}

	data := models.NotificationData{
		"event_id":      event.ID.String(),
		"invitation_id": invitationID.String(),
		"event_title":   event.Title,
		"inviter_name":  hostName,
	}
	nType := models.NotificationTypeEventInvitation
	message := fmt.Sprintf("%s invited you to %s", hostName, event.Title)
	if crewID != nil {
		data["crew_id"] = crewID.String()
		data["crew_name"] = crewName
		message = fmt.Sprintf("%s invited your crew %s to %s", hostName, crewName, event.Title)
	}

	if _, err := s.notifier.Create(ctx, userID, nType, "You're invited 🍻", message, data); err != nil {
		logging.Error("Failed to create invite notification", map[string]interface{}{"error": err.Error(), "user_id": userID.String()})
	}
}
