package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/thirstee-app/thirstee/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
}

// EventServiceInterface defines the contract for event operations used by handlers.
type EventServiceInterface interface {
	Create(ctx context.Context, hostID uuid.UUID, params models.CreateEventParams) (*models.Event, error)
	GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	GetByShareToken(ctx context.Context, token string) (*models.Event, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	RSVPByShareToken(ctx context.Context, token string, userID uuid.UUID, status models.RSVPStatus) (*models.RSVP, error)
	RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.EventMember, error)
}

// InvitationServiceInterface defines the contract for the reconciled
// invitation view and invite management.
type InvitationServiceInterface interface {
	EventInvitations(ctx context.Context, eventID uuid.UUID) ([]models.EventInvitation, error)
	InviteUsers(ctx context.Context, hostID, eventID uuid.UUID, userIDs []uuid.UUID) (int, error)
	InviteCrew(ctx context.Context, hostID, eventID, crewID uuid.UUID) (int, error)
	RemoveInvitation(ctx context.Context, hostID, eventID, userID uuid.UUID) error
}

// CrewServiceInterface defines the contract for crew operations.
type CrewServiceInterface interface {
	Create(ctx context.Context, creatorID uuid.UUID, name, description string) (*models.Crew, error)
	GetWithMembers(ctx context.Context, crewID uuid.UUID) (*models.CrewWithMembers, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Crew, error)
	InviteUser(ctx context.Context, inviterID, crewID, userID uuid.UUID) (*models.CrewMember, error)
	RespondToInvite(ctx context.Context, userID uuid.UUID, data models.NotificationData, accept bool) (*models.CrewMember, error)
	RemoveMember(ctx context.Context, actorID, crewID, userID uuid.UUID) error
}

// NotificationServiceInterface defines the contract for notification operations.
type NotificationServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, params NotificationListParams) ([]models.Notification, error)
	Get(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationCreator is the narrow interface domain services use to emit
// notifications.
type NotificationCreator interface {
	Create(ctx context.Context, userID uuid.UUID, nType models.NotificationType, title, message string, data models.NotificationData) (*models.Notification, error)
}

// EmailSenderInterface defines the contract for email dispatch.
type EmailSenderInterface interface {
	Send(ctx context.Context, params SendEmailParams) (string, error)
}
