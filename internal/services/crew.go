package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/models"
)

var (
	ErrCrewNotFound           = errors.New("crew not found")
	ErrCrewMemberNotFound     = errors.New("crew member not found")
	ErrNotCrewMember          = errors.New("not a crew member")
	ErrAlreadyInCrew          = errors.New("already in crew")
	ErrInviteReferenceMissing = errors.New("invite reference missing")
	ErrInviteAlreadyResponded = errors.New("invite already responded")
)

type CrewService struct {
	db       DB
	notifier NotificationCreator
}

func NewCrewService(db DB) *CrewService {
	return &CrewService{db: db}
}

func (s *CrewService) SetNotificationService(n NotificationCreator) {
	s.notifier = n
}

func (s *CrewService) Create(ctx context.Context, creatorID uuid.UUID, name, description string) (*models.Crew, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin crew create: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	crew := &models.Crew{}
	err = tx.QueryRow(ctx,
		`INSERT INTO crews (name, description, created_by)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, created_by, created_at, updated_at`,
		name, description, creatorID,
	).Scan(&crew.ID, &crew.Name, &crew.Description, &crew.CreatedBy, &crew.CreatedAt, &crew.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert crew: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO crew_members (crew_id, user_id, status, role)
		 VALUES ($1, $2, 'accepted', 'host')`,
		crew.ID, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert crew host: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit crew create: %w", err)
	}
	committed = true

	return crew, nil
}

func (s *CrewService) GetWithMembers(ctx context.Context, crewID uuid.UUID) (*models.CrewWithMembers, error) {
	crew := &models.Crew{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, created_by, created_at, updated_at
		 FROM crews WHERE id = $1`,
		crewID,
	).Scan(&crew.ID, &crew.Name, &crew.Description, &crew.CreatedBy, &crew.CreatedAt, &crew.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCrewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading crew: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT cm.id, cm.crew_id, cm.user_id, cm.status, cm.role, cm.invited_by, cm.created_at, cm.updated_at, u.display_name
		 FROM crew_members cm
		 JOIN users u ON cm.user_id = u.id
		 WHERE cm.crew_id = $1
		 ORDER BY cm.created_at`,
		crewID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing crew members: %w", err)
	}
	defer rows.Close()

	result := &models.CrewWithMembers{Crew: *crew, Members: []models.CrewMemberWithUser{}}
	for rows.Next() {
		var m models.CrewMemberWithUser
		if err := rows.Scan(&m.ID, &m.CrewID, &m.UserID, &m.Status, &m.Role, &m.InvitedBy, &m.CreatedAt, &m.UpdatedAt, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning crew member: %w", err)
		}
		result.Members = append(result.Members, m)
	}
	return result, rows.Err()
}

func (s *CrewService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Crew, error) {
	rows, err := s.db.Query(ctx,
		`SELECT c.id, c.name, c.description, c.created_by, c.created_at, c.updated_at
		 FROM crews c
		 JOIN crew_members cm ON cm.crew_id = c.id
		 WHERE cm.user_id = $1 AND cm.status = 'accepted'
		 ORDER BY c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing crews: %w", err)
	}
	defer rows.Close()

	crews := []models.Crew{}
	for rows.Next() {
		var c models.Crew
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning crew: %w", err)
		}
		crews = append(crews, c)
	}
	return crews, rows.Err()
}

// InviteUser adds a pending membership and notifies the invitee. The
// inviter must be an accepted member of the crew.
func (s *CrewService) InviteUser(ctx context.Context, inviterID, crewID, userID uuid.UUID) (*models.CrewMember, error) {
	var crewName string
	var inviterName string
	err := s.db.QueryRow(ctx,
		`SELECT c.name, u.display_name
		 FROM crews c
		 JOIN crew_members cm ON cm.crew_id = c.id AND cm.status = 'accepted'
		 JOIN users u ON u.id = cm.user_id
		 WHERE c.id = $1 AND cm.user_id = $2`,
		crewID, inviterID,
	).Scan(&crewName, &inviterName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotCrewMember
	}
	if err != nil {
		return nil, fmt.Errorf("checking crew membership: %w", err)
	}

	member := &models.CrewMember{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO crew_members (crew_id, user_id, status, role, invited_by)
		 VALUES ($1, $2, 'pending', 'member', $3)
		 ON CONFLICT (crew_id, user_id) DO NOTHING
		 RETURNING id, crew_id, user_id, status, role, invited_by, created_at, updated_at`,
		crewID, userID, inviterID,
	).Scan(&member.ID, &member.CrewID, &member.UserID, &member.Status, &member.Role, &member.InvitedBy, &member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlreadyInCrew
	}
	if err != nil {
		return nil, fmt.Errorf("insert crew invite: %w", err)
	}

	if s.notifier != nil {
		data := models.NotificationData{
			"crew_id":        crewID.String(),
			"crew_member_id": member.ID.String(),
			"crew_name":      crewName,
			"inviter_name":   inviterName,
		}
		message := fmt.Sprintf("%s invited you to join %s", inviterName, crewName)
		if _, err := s.notifier.Create(ctx, userID, models.NotificationTypeCrewInvitation, "Crew invitation", message, data); err != nil {
			logging.Error("Failed to create crew invite notification", map[string]interface{}{"error": err.Error(), "user_id": userID.String()})
		}
	}

	return member, nil
}

// RespondToInvite applies the pending -> accepted/declined transition for
// a crew invitation. The notification payload may be missing the
// crew_member_id; resolution falls back to the pending row for
// (crew_id, user), then to the user's most recent pending row anywhere.
// When every step fails the caller surfaces a refresh-and-retry error.
func (s *CrewService) RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.CrewMember, error) {
	memberID, err := s.resolveCrewMemberID(ctx, userID, data)
	if err != nil {
		return nil, err
	}

	status := models.InviteStatusDeclined
	if accept {
		status = models.InviteStatusAccepted
	}

	member := &models.CrewMember{}
	err = s.db.QueryRow(ctx,
		`UPDATE crew_members
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = 'pending'
		 RETURNING id, crew_id, user_id, status, role, invited_by, created_at, updated_at`,
		string(status), memberID, userID,
	).Scan(&member.ID, &member.CrewID, &member.UserID, &member.Status, &member.Role, &member.InvitedBy, &member.CreatedAt, &member.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race or the invite was already answered; both terminal.
		return nil, ErrInviteAlreadyResponded
	}
	if err != nil {
		return nil, fmt.Errorf("responding to crew invite: %w", err)
	}

	s.notifyResponse(ctx, member, accept)

	return member, nil
}

// resolveCrewMemberID applies the fallback chain in order until one step
// yields an id.
func (s *CrewService) resolveCrewMemberID(ctx context.Context, userID uuid.UUID, data models.NotificationData) (uuid.UUID, error) {
	if id := data.UUIDField("crew_member_id"); id != nil {
		return *id, nil
	}

	if crewID := data.UUIDField("crew_id"); crewID != nil {
		var id uuid.UUID
		err := s.db.QueryRow(ctx,
			`SELECT id FROM crew_members
			 WHERE crew_id = $1 AND user_id = $2 AND status = 'pending'`,
			*crewID, userID,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("resolving crew member: %w", err)
		}
	}

	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM crew_members
		 WHERE user_id = $1 AND status = 'pending'
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrInviteReferenceMissing
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving crew member: %w", err)
	}
	return id, nil
}

func (s *CrewService) notifyResponse(ctx context.Context, member *models.CrewMember, accepted bool) {
	if s.notifier == nil || member.InvitedBy == nil {
		return
	}

	var crewName, responderName string
	err := s.db.QueryRow(ctx,
		`SELECT c.name, u.display_name
		 FROM crews c, users u
		 WHERE c.id = $1 AND u.id = $2`,
		member.CrewID, member.UserID,
	).Scan(&crewName, &responderName)
	if err != nil {
		logging.Error("Failed to load crew response context", map[string]interface{}{"error": err.Error()})
		return
	}

	verb := "declined"
	if accepted {
		verb = "joined"
	}
	data := models.NotificationData{
		"crew_id":   member.CrewID.String(),
		"crew_name": crewName,
	}
	message := fmt.Sprintf("%s %s %s", responderName, verb, crewName)
	if _, err := s.notifier.Create(ctx, *member.InvitedBy, models.NotificationTypeCrewResponse, "Crew update", message, data); err != nil {
		logging.Error("Failed to create crew response notification", map[string]interface{}{"error": err.Error()})
	}
}

// RemoveMember removes a member (or lets a member leave). Only the crew
// host may remove others.
func (s *CrewService) RemoveMember(ctx context.Context, actorID, crewID, userID uuid.UUID) error {
	if actorID != userID {
		var createdBy uuid.UUID
		err := s.db.QueryRow(ctx, "SELECT created_by FROM crews WHERE id = $1", crewID).Scan(&createdBy)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCrewNotFound
		}
		if err != nil {
			return fmt.Errorf("loading crew: %w", err)
		}
		if createdBy != actorID {
			return ErrNotCrewMember
		}
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM crew_members WHERE crew_id = $1 AND user_id = $2",
		crewID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing crew member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCrewMemberNotFound
	}
	return nil
}
