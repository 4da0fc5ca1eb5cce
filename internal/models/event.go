package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is the lifecycle of an event or crew invitation.
// Pending transitions to accepted or declined and both are terminal.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// InvitationType records how a user ended up invited to an event.
type InvitationType string

const (
	InvitationTypeDirect InvitationType = "direct"
	InvitationTypeCrew   InvitationType = "crew"
)

type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not_going"
)

type Event struct {
	ID         uuid.UUID  `json:"id"`
	CreatedBy  uuid.UUID  `json:"created_by"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	Location   string     `json:"location,omitempty"`
	PlaceID    *string    `json:"place_id,omitempty"`
	StartsAt   time.Time  `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	ShareToken string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CreateEventParams struct {
	Title    string
	Notes    string
	Location string
	PlaceID  *string
	StartsAt time.Time
	EndsAt   *time.Time
}

type EventMember struct {
	ID             uuid.UUID      `json:"id"`
	EventID        uuid.UUID      `json:"event_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Status         InviteStatus   `json:"status"`
	InvitationType InvitationType `json:"invitation_type"`
	CrewID         *uuid.UUID     `json:"crew_id,omitempty"`
	InvitedBy      *uuid.UUID     `json:"invited_by,omitempty"`
	InvitedAt      time.Time      `json:"invited_at"`
	RespondedAt    *time.Time     `json:"responded_at,omitempty"`
}

type RSVP struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Status      RSVPStatus `json:"status"`
	RespondedAt time.Time  `json:"responded_at"`
}

// EventInvitation is the reconciled per-user view of an event's invitations,
// merged from direct invites, crew invites, and RSVP rows. There is at most
// one record per user per event; an RSVP of "going" wins over any stale
// invitation-table status.
type EventInvitation struct {
	UserID         uuid.UUID      `json:"user_id"`
	DisplayName    string         `json:"display_name"`
	Status         string         `json:"status"`
	InvitationType InvitationType `json:"invitation_type"`
	InvitedAt      time.Time      `json:"invited_at"`
	CrewName       *string        `json:"crew_name,omitempty"`
}
