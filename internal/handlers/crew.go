package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
)

type CrewHandler struct {
	crewService         services.CrewServiceInterface
	notificationService services.NotificationServiceInterface
}

func NewCrewHandler(crewService services.CrewServiceInterface, notificationService services.NotificationServiceInterface) *CrewHandler {
	return &CrewHandler{
		crewService:         crewService,
		notificationService: notificationService,
	}
}

type CreateCrewRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CrewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateCrewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Crew name is required")
		return
	}
	if len(req.Name) > 100 {
		writeError(w, http.StatusBadRequest, "Crew name must be at most 100 characters")
		return
	}

	crew, err := h.crewService.Create(r.Context(), user.ID, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		log.Printf("Error creating crew: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, crew)
}

func (h *CrewHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	crews, err := h.crewService.ListForUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing crews: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"crews": crews})
}

func (h *CrewHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	crewID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crew ID")
		return
	}

	crew, err := h.crewService.GetWithMembers(r.Context(), crewID)
	if errors.Is(err, services.ErrCrewNotFound) {
		writeError(w, http.StatusNotFound, "Crew not found")
		return
	}
	if err != nil {
		log.Printf("Error getting crew: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, crew)
}

type CrewInviteRequest struct {
	UserID string `json:"user_id"`
}

func (h *CrewHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	crewID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crew ID")
		return
	}

	var req CrewInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	member, err := h.crewService.InviteUser(r.Context(), user.ID, crewID, userID)
	if errors.Is(err, services.ErrCrewNotFound) {
		writeError(w, http.StatusNotFound, "Crew not found")
		return
	}
	if errors.Is(err, services.ErrNotCrewMember) {
		writeError(w, http.StatusForbidden, "Only crew members can invite")
		return
	}
	if errors.Is(err, services.ErrAlreadyInCrew) {
		writeError(w, http.StatusConflict, "User is already in the crew")
		return
	}
	if err != nil {
		log.Printf("Error inviting to crew: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// Respond accepts or declines a crew invitation referenced by its
// notification. Resolution mirrors the event flow: the payload's
// crew_member_id is tried first, then the pending row for the payload's
// crew, then the user's latest pending invite in any crew.
func (h *CrewHandler) Respond(w http.ResponseWriter, r *http.Request) {
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
	if notification.Type != models.NotificationTypeCrewInvitation {
		writeError(w, http.StatusBadRequest, "Notification is not a crew invitation")
		return
	}

	member, err := h.crewService.RespondToInvite(r.Context(), user.ID, notification.Data, req.Accept)
	if errors.Is(err, services.ErrInviteReferenceMissing) {
		writeError(w, http.StatusNotFound, "Invitation no longer exists")
		return
	}
	if errors.Is(err, services.ErrInviteAlreadyResponded) {
		writeError(w, http.StatusConflict, "Invitation was already responded to")
		return
	}
	if err != nil {
		log.Printf("Error responding to crew invitation: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), user.ID, notificationID); err != nil {
		log.Printf("Error marking notification read: %v", err)
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *CrewHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	crewID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid crew ID")
		return
	}
	userID, err := uuid.Parse(r.PathValue("userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	err = h.crewService.RemoveMember(r.Context(), user.ID, crewID, userID)
	if errors.Is(err, services.ErrCrewNotFound) {
		writeError(w, http.StatusNotFound, "Crew not found")
		return
	}
	if errors.Is(err, services.ErrCrewMemberNotFound) {
		writeError(w, http.StatusNotFound, "Crew member not found")
		return
	}
	if errors.Is(err, services.ErrNotCrewMember) {
		writeError(w, http.StatusForbidden, "Only the member or the crew creator can remove a membership")
		return
	}
	if err != nil {
		log.Printf("Error removing crew member: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Member removed"})
}
