package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/thirstee-app/thirstee/internal/geocode"
	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
)

type mockUserService struct {
	CreateFunc     func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

type mockAuthService struct {
	HashPasswordFunc    func(password string) (string, error)
	VerifyPasswordFunc  func(hash, password string) bool
	CreateSessionFunc   func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc   func(ctx context.Context, token string) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return true
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session-token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, services.ErrInvalidCredentials
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

type mockEventService struct {
	CreateFunc           func(ctx context.Context, hostID uuid.UUID, params models.CreateEventParams) (*models.Event, error)
	GetByIDFunc          func(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	GetByShareTokenFunc  func(ctx context.Context, token string) (*models.Event, error)
	ListForUserFunc      func(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	RSVPByShareTokenFunc func(ctx context.Context, token string, userID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error)
	RespondToInviteFunc  func(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.EventMember, error)
}

func (m *mockEventService) Create(ctx context.Context, hostID uuid.UUID, params models.CreateEventParams) (*models.Event, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, hostID, params)
	}
	return nil, nil
}

func (m *mockEventService) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, eventID)
	}
	return nil, services.ErrEventNotFound
}

func (m *mockEventService) GetByShareToken(ctx context.Context, token string) (*models.Event, error) {
	if m.GetByShareTokenFunc != nil {
		return m.GetByShareTokenFunc(ctx, token)
	}
	return nil, services.ErrEventNotFound
}

func (m *mockEventService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEventService) RSVPByShareToken(ctx context.Context, token string, userID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error) {
	if m.RSVPByShareTokenFunc != nil {
		return m.RSVPByShareTokenFunc(ctx, token, userID, status)
	}
	return nil, nil
}

func (m *mockEventService) RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.EventMember, error) {
	if m.RespondToInviteFunc != nil {
		return m.RespondToInviteFunc(ctx, userID, data, accept)
	}
	return nil, nil
}

type mockInvitationService struct {
	EventInvitationsFunc func(ctx context.Context, eventID uuid.UUID) ([]models.EventInvitation, error)
	InviteUsersFunc      func(ctx context.Context, hostID, eventID uuid.UUID, userIDs []uuid.UUID) (int, error)
	InviteCrewFunc       func(ctx context.Context, hostID, eventID, crewID uuid.UUID) (int, error)
	RemoveInvitationFunc func(ctx context.Context, hostID, eventID, userID uuid.UUID) error
}

func (m *mockInvitationService) EventInvitations(ctx context.Context, eventID uuid.UUID) ([]models.EventInvitation, error) {
	if m.EventInvitationsFunc != nil {
		return m.EventInvitationsFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockInvitationService) InviteUsers(ctx context.Context, hostID, eventID uuid.UUID, userIDs []uuid.UUID) (int, error) {
	if m.InviteUsersFunc != nil {
		return m.InviteUsersFunc(ctx, hostID, eventID, userIDs)
	}
	return 0, nil
}

func (m *mockInvitationService) InviteCrew(ctx context.Context, hostID, eventID, crewID uuid.UUID) (int, error) {
	if m.InviteCrewFunc != nil {
		return m.InviteCrewFunc(ctx, hostID, eventID, crewID)
	}
	return 0, nil
}

func (m *mockInvitationService) RemoveInvitation(ctx context.Context, hostID, eventID, userID uuid.UUID) error {
	if m.RemoveInvitationFunc != nil {
		return m.RemoveInvitationFunc(ctx, hostID, eventID, userID)
	}
	return nil
}

type mockCrewService struct {
	CreateFunc          func(ctx context.Context, creatorID uuid.UUID, name, description string) (*models.Crew, error)
	GetWithMembersFunc  func(ctx context.Context, crewID uuid.UUID) (*models.CrewWithMembers, error)
	ListForUserFunc     func(ctx context.Context, userID uuid.UUID) ([]models.Crew, error)
	InviteUserFunc      func(ctx context.Context, inviterID, crewID, userID uuid.UUID) (*models.CrewMember, error)
	RespondToInviteFunc func(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.CrewMember, error)
	RemoveMemberFunc    func(ctx context.Context, actorID, crewID, userID uuid.UUID) error
}

func (m *mockCrewService) Create(ctx context.Context, creatorID uuid.UUID, name, description string) (*models.Crew, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, creatorID, name, description)
	}
	return nil, nil
}

func (m *mockCrewService) GetWithMembers(ctx context.Context, crewID uuid.UUID) (*models.CrewWithMembers, error) {
	if m.GetWithMembersFunc != nil {
		return m.GetWithMembersFunc(ctx, crewID)
	}
	return nil, services.ErrCrewNotFound
}

func (m *mockCrewService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Crew, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCrewService) InviteUser(ctx context.Context, inviterID, crewID, userID uuid.UUID) (*models.CrewMember, error) {
	if m.InviteUserFunc != nil {
		return m.InviteUserFunc(ctx, inviterID, crewID, userID)
	}
	return nil, nil
}

func (m *mockCrewService) RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.CrewMember, error) {
	if m.RespondToInviteFunc != nil {
		return m.RespondToInviteFunc(ctx, userID, data, accept)
	}
	return nil, nil
}

func (m *mockCrewService) RemoveMember(ctx context.Context, actorID, crewID, userID uuid.UUID) error {
	if m.RemoveMemberFunc != nil {
		return m.RemoveMemberFunc(ctx, actorID, crewID, userID)
	}
	return nil
}

type mockNotificationService struct {
	ListFunc        func(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error)
	GetFunc         func(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error)
	MarkReadFunc    func(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllReadFunc func(ctx context.Context, userID uuid.UUID) error
	UnreadCountFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID, params services.NotificationListParams) ([]models.Notification, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, userID, params)
	}
	return nil, nil
}

func (m *mockNotificationService) Get(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, notificationID)
	}
	return nil, services.ErrNotificationNotFound
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, userID, notificationID)
	}
	return nil
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, userID)
	}
	return nil
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, nil
}

type mockEmailService struct {
	SendFunc func(ctx context.Context, params services.SendEmailParams) (string, error)
}

func (m *mockEmailService) Send(ctx context.Context, params services.SendEmailParams) (string, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, params)
	}
	return "msg-1", nil
}

type mockPlaceLookup struct {
	PredictionsFunc func(ctx context.Context, input string, opts geocode.PredictionOptions) ([]geocode.Prediction, error)
	DetailsFunc     func(ctx context.Context, placeID string) (*geocode.PlaceDetails, error)
}

func (m *mockPlaceLookup) Predictions(ctx context.Context, input string, opts geocode.PredictionOptions) ([]geocode.Prediction, error) {
	if m.PredictionsFunc != nil {
		return m.PredictionsFunc(ctx, input, opts)
	}
	return nil, nil
}

func (m *mockPlaceLookup) Details(ctx context.Context, placeID string) (*geocode.PlaceDetails, error) {
	if m.DetailsFunc != nil {
		return m.DetailsFunc(ctx, placeID)
	}
	return nil, nil
}
