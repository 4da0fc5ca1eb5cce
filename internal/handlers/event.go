package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
)

type EventHandler struct {
	eventService        services.EventServiceInterface
	invitationService   services.InvitationServiceInterface
	notificationService services.NotificationServiceInterface
}

func NewEventHandler(eventService services.EventServiceInterface, invitationService services.InvitationServiceInterface, notificationService services.NotificationServiceInterface) *EventHandler {
	return &EventHandler{
		eventService:        eventService,
		invitationService:   invitationService,
		notificationService: notificationService,
	}
}

type CreateEventRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Location string     `json:"location"`
	PlaceID  *string    `json:"place_id"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.StartsAt.IsZero() {
		writeError(w, http.StatusBadRequest, "Start time is required")
		return
	}
	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		writeError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	event, err := h.eventService.Create(r.Context(), user.ID, models.CreateEventParams{
		Title:    req.Title,
		Notes:    strings.TrimSpace(req.Notes),
		Location: strings.TrimSpace(req.Location),
		PlaceID:  req.PlaceID,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		log.Printf("Error creating event: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	events, err := h.eventService.ListForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing events: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("Error getting event: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// Invitations returns the reconciled guest list for an event: one entry
// per user, merged from direct invites, crew invites, and share-link
// RSVPs. Only the host can see it.
func (h *EventHandler) Invitations(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	event, err := h.eventService.GetByID(r.Context(), eventID)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("Error getting event: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if event.CreatedBy != user.ID {
		writeError(w, http.StatusForbidden, "Only the host can view invitations")
		return
	}

	invitations, err := h.invitationService.EventInvitations(r.Context(), eventID)
	if err != nil {
		log.Printf("Error loading invitations: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}

type InviteUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

func (h *EventHandler) InviteUsers(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	var req InviteUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.UserIDs) == 0 {
		writeError(w, http.StatusBadRequest, "At least one user ID is required")
		return
	}

	userIDs := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user ID: "+raw)
			return
		}
		userIDs = append(userIDs, id)
	}

	invited, err := h.invitationService.InviteUsers(r.Context(), user.ID, eventID, userIDs)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if errors.Is(err, services.ErrNotEventHost) {
		writeError(w, http.StatusForbidden, "Only the host can send invitations")
		return
	}
	if err != nil {
		log.Printf("Error inviting users: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"invited": invited})
}

func (h *EventHandler) InviteCrew(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	crewID, err := uuid.Parse(r.PathValue("crewID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crew ID")
		return
	}

	invited, err := h.invitationService.InviteCrew(r.Context(), user.ID, eventID, crewID)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if errors.Is(err, services.ErrNotEventHost) {
		writeError(w, http.StatusForbidden, "Only the host can send invitations")
		return
	}
	if errors.Is(err, services.ErrCrewNotFound) {
		writeError(w, http.StatusNotFound, "Crew not found")
		return
	}
	if err != nil {
		log.Printf("Error inviting crew: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"invited": invited})
}

func (h *EventHandler) RemoveInvitation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	eventID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.invitationService.RemoveInvitation(r.Context(), user.ID, eventID, userID)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if errors.Is(err, services.ErrNotEventHost) {
		writeError(w, http.StatusForbidden, "Only the host can remove invitations")
		return
	}
	if errors.Is(err, services.ErrInvitationNotFound) {
		writeError(w, http.StatusNotFound, "Invitation not found")
		return
	}
	if err != nil {
		log.Printf("Error removing invitation: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation removed"})
}

type RespondRequest struct {
	NotificationID string `json:"notification_id"`
	Accept         bool   `json:"accept"`
}

// Respond accepts or declines an event invitation referenced by its
// notification. The membership row is resolved from the notification
// payload with a fallback lookup, so stale payloads still resolve as
// long as a pending invite exists.
func (h *EventHandler) Respond(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	notificationID, err := uuid.Parse(req.NotificationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	notification, err := h.notificationService.Get(r.Context(), user.ID, notificationID)
	if errors.Is(err, services.ErrNotificationNotFound) {
		writeError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		log.Printf("Error getting notification: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if notification.Type != models.NotificationTypeEventInvitation {
		writeError(w, http.StatusBadRequest, "Notification is not an event invitation")
		return
	}

	member, err := h.eventService.RespondToInvite(r.Context(), user.ID, notification.Data, req.Accept)
	if errors.Is(err, services.ErrInviteReferenceMissing) {
		writeError(w, http.StatusNotFound, "Invitation no longer exists")
		return
	}
	if errors.Is(err, services.ErrInviteAlreadyResponded) {
		writeError(w, http.StatusConflict, "Invitation was already responded to")
		return
	}
	if err != nil {
		log.Printf("Error responding to invitation: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Mark the notification read regardless of accept/decline. Failure
	// here does not undo the response.
	if err := h.notificationService.MarkRead(r.Context(), user.ID, notificationID); err != nil {
		log.Printf("Error marking notification read: %v", err)
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *EventHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Share token is required")
		return
	}

	event, err := h.eventService.GetByShareToken(r.Context(), token)
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("Error getting shared event: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

type SharedRSVPRequest struct {
	Status string `json:"status"`
}

func (h *EventHandler) SharedRSVP(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Share token is required")
		return
	}

	var req SharedRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rsvp, err := h.eventService.RSVPByShareToken(r.Context(), token, user.ID, models.RSVPStatus(req.Status))
	if errors.Is(err, services.ErrInvalidRSVPStatus) {
		writeError(w, http.StatusBadRequest, "Invalid RSVP status")
		return
	}
	if errors.Is(err, services.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		log.Printf("Error recording RSVP: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, rsvp)
}
