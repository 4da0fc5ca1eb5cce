package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
)

type EmailHandler struct {
	emailService services.EmailSenderInterface
}

func NewEmailHandler(emailService services.EmailSenderInterface) *EmailHandler {
	return &EmailHandler{emailService: emailService}
}

type SendEmailRequest struct {
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	HTML    string         `json:"html"`
	Text    string         `json:"text"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
}

type SendEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId,omitempty"`
}

// Send dispatches one transactional email. Callers either supply
// rendered HTML or a known type plus template data; with neither the
// request is rejected.
func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.To = strings.TrimSpace(req.To)
	if req.To == "" || req.Subject == "" {
		writeError(w, http.StatusBadRequest, "Recipient and subject are required")
		return
	}
	if _, err := mail.ParseAddress(req.To); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid recipient address")
		return
	}

	messageID, err := h.emailService.Send(r.Context(), services.SendEmailParams{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
		Text:    req.Text,
		Type:    models.EmailType(req.Type),
		Data:    req.Data,
	})
	if errors.Is(err, services.ErrMissingEmailFields) {
		writeError(w, http.StatusBadRequest, "Missing required email fields")
		return
	}
	if errors.Is(err, services.ErrNoEmailContent) {
		writeError(w, http.StatusBadRequest, "No email content and no template for the given type")
		return
	}
	if errors.Is(err, services.ErrEmailNotConfigured) {
		writeError(w, http.StatusInternalServerError, "Email service is not configured")
		return
	}
	if err != nil {
		log.Printf("Error sending email: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, SendEmailResponse{
		Success:   true,
		Message:   "Email sent",
		MessageID: messageID,
	})
}
