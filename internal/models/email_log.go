package models

import (
	"time"

	"github.com/google/uuid"
)

type EmailType string

const (
	EmailTypeEventInvitation EmailType = "event_invitation"
	EmailTypeEventReminder   EmailType = "event_reminder"
	EmailTypeCrewInvitation  EmailType = "crew_invitation"
	// EmailTypeCustom marks sends where the caller supplied rendered
	// content instead of relying on a template.
	EmailTypeCustom EmailType = "custom"
)

type EmailStatus string

const (
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
)

// EmailLog is an append-only audit row recording each delivery attempt.
type EmailLog struct {
	ID        uuid.UUID   `json:"id"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject"`
	Type      EmailType   `json:"type"`
	Status    EmailStatus `json:"status"`
	MessageID *string     `json:"message_id,omitempty"`
	ErrorText *string     `json:"error_text,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
