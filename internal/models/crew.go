package models

import (
	"time"

	"github.com/google/uuid"
)

type CrewRole string

const (
	CrewRoleHost   CrewRole = "host"
	CrewRoleCoHost CrewRole = "co_host"
	CrewRoleMember CrewRole = "member"
)

type Crew struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CrewMember struct {
	ID        uuid.UUID    `json:"id"`
	CrewID    uuid.UUID    `json:"crew_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Status    InviteStatus `json:"status"`
	Role      CrewRole     `json:"role"`
	InvitedBy *uuid.UUID   `json:"invited_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type CrewMemberWithUser struct {
	CrewMember
	DisplayName string `json:"display_name"`
}

type CrewWithMembers struct {
	Crew
	Members []CrewMemberWithUser `json:"members"`
}
