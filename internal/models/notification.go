package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeEventInvitation  NotificationType = "event_invitation"
	NotificationTypeCrewInvitation   NotificationType = "crew_invitation"
	NotificationTypeEventResponse    NotificationType = "event_invitation_response"
	NotificationTypeCrewResponse     NotificationType = "crew_invitation_response"
	NotificationTypeEventReminder    NotificationType = "event_reminder"
	NotificationTypeInvitationRemove NotificationType = "invitation_removed"
)

// NotificationData is the JSONB payload attached to a notification. It
// carries the identifiers a client needs to act on the notification
// (event_id, crew_id, crew_member_id, invitation_id) plus display fields.
// Identifier fields may be absent; responders fall back to lookups.
type NotificationData map[string]any

// UUIDField returns the named payload field parsed as a UUID, or nil when
// the field is absent or malformed.
func (d NotificationData) UUIDField(key string) *uuid.UUID {
	raw, ok := d[key]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// StringField returns the named payload field as a string, or "" when
// absent or not a string.
func (d NotificationData) StringField(key string) string {
	raw, ok := d[key]
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Data      NotificationData `json:"data,omitempty"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Read reports whether the notification has been marked read. The read
// transition is the only client-driven mutation; notifications are never
// deleted through the API.
func (n Notification) Read() bool {
	return n.ReadAt != nil
}
