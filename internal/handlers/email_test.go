package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thirstee-app/thirstee/internal/models"
	"github.com/thirstee-app/thirstee/internal/services"
	"github.com/thirstee-app/thirstee/internal/testutil"
)

func TestEmailHandler_Send_MissingRecipient(t *testing.T) {
	handler := NewEmailHandler(&mockEmailService{})

	payload := `{"subject":"Hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Recipient and subject are required")
}

func TestEmailHandler_Send_InvalidRecipient(t *testing.T) {
	handler := NewEmailHandler(&mockEmailService{})

	payload := `{"to":"not-an-address","subject":"Hi","html":"<p>Hi</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid recipient address")
}

func TestEmailHandler_Send_NoContentNoTemplate(t *testing.T) {
	emailService := &mockEmailService{
		SendFunc: func(ctx context.Context, params services.SendEmailParams) (string, error) {
			return "", services.ErrNoEmailContent
		},
	}
	handler := NewEmailHandler(emailService)

	payload := `{"to":"user@example.com","subject":"Hi","type":"unknown_type"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "No email content and no template for the given type")
}

func TestEmailHandler_Send_NotConfigured(t *testing.T) {
	emailService := &mockEmailService{
		SendFunc: func(ctx context.Context, params services.SendEmailParams) (string, error) {
			return "", services.ErrEmailNotConfigured
		},
	}
	handler := NewEmailHandler(emailService)

	payload := `{"to":"user@example.com","subject":"Hi","html":"<p>Hi</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	assertErrorResponse(t, rr, http.StatusInternalServerError, "Email service is not configured")
}

func TestEmailHandler_Send_TemplateType(t *testing.T) {
	var gotParams services.SendEmailParams
	emailService := &mockEmailService{
		SendFunc: func(ctx context.Context, params services.SendEmailParams) (string, error) {
			gotParams = params
			return "msg-42", nil
		},
	}
	handler := NewEmailHandler(emailService)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/email/send", SendEmailRequest{
		To:      "user@example.com",
		Subject: "You're invited",
		Type:    "event_invitation",
		Data:    map[string]any{"event_title": "Drinks", "inviter_name": "Sam"},
	})
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	testutil.AssertStatusCode(t, rr, http.StatusOK)

	if gotParams.Type != models.EmailTypeEventInvitation {
		t.Fatalf("expected event_invitation type, got %q", gotParams.Type)
	}
	if gotParams.Data["event_title"] != "Drinks" {
		t.Fatalf("expected template data forwarded, got %v", gotParams.Data)
	}

	var response SendEmailResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !response.Success || response.MessageID != "msg-42" {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestEmailHandler_Send_ProviderFailure(t *testing.T) {
	emailService := &mockEmailService{
		SendFunc: func(ctx context.Context, params services.SendEmailParams) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	handler := NewEmailHandler(emailService)

	payload := `{"to":"user@example.com","subject":"Hi","html":"<p>Hi</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/send", bytes.NewBufferString(payload))
	rr := httptest.NewRecorder()

	handler.Send(rr, req)
	assertErrorResponse(t, rr, http.StatusInternalServerError, "Failed to send email")
}
