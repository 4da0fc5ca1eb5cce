package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/thirstee-app/thirstee/internal/config"
	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/models"
)

var (
	ErrMissingEmailFields = errors.New("missing required email fields")
	ErrNoEmailContent     = errors.New("no email content")
	ErrEmailNotConfigured = errors.New("email provider not configured")
)

// Email is a fully rendered message ready for a provider.
type Email struct {
	To      string
	From    string
	Subject string
	HTML    string
	Text    string
}

// EmailProvider sends a rendered email and returns the provider message id.
type EmailProvider interface {
	Send(ctx context.Context, email *Email) (string, error)
}

type SendEmailParams struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Type    models.EmailType
	Data    map[string]any
}

// EmailService renders and sends transactional email, recording every
// attempt in the email_logs audit table. Invitation links embed raw
// tokens, so providers must not rewrite them for click tracking.
type EmailService struct {
	provider    EmailProvider
	db          DB
	fromAddress string
	fromName    string
	baseURL     string
}

func NewEmailService(cfg *config.EmailConfig, db DB) *EmailService {
	var provider EmailProvider

	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey != "" {
			provider = NewResendProvider(cfg.ResendAPIKey)
		}
	case "smtp":
		provider = NewSMTPProvider(cfg.SMTPHost, cfg.SMTPPort, cfg.FromAddress)
	default:
		provider = NewConsoleProvider()
	}

	return &EmailService{
		provider:    provider,
		db:          db,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// SetProvider replaces the provider; tests inject fakes through this.
func (s *EmailService) SetProvider(p EmailProvider) {
	s.provider = p
}

// Send validates the request, fills in template content for invitation
// types when no HTML was supplied, sends through the provider, and logs
// the outcome. The returned string is the provider message id.
func (s *EmailService) Send(ctx context.Context, params SendEmailParams) (string, error) {
	if params.To == "" || params.Subject == "" || params.Type == "" {
		return "", ErrMissingEmailFields
	}

	html, text := params.HTML, params.Text
	if html == "" {
		switch params.Type {
		case models.EmailTypeEventInvitation:
			html, text = s.renderEventInvitationEmail(params.Data)
		case models.EmailTypeCrewInvitation:
			html, text = s.renderCrewInvitationEmail(params.Data)
		default:
			return "", ErrNoEmailContent
		}
	}
	if html == "" && text == "" {
		return "", ErrNoEmailContent
	}

	if s.provider == nil {
		return "", ErrEmailNotConfigured
	}

	email := &Email{
		To:      params.To,
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress),
		Subject: params.Subject,
		HTML:    html,
		Text:    text,
	}

	messageID, sendErr := s.provider.Send(ctx, email)
	s.logOutcome(ctx, params, messageID, sendErr)
	if sendErr != nil {
		return "", fmt.Errorf("sending email: %w", sendErr)
	}

	return messageID, nil
}

func (s *EmailService) logOutcome(ctx context.Context, params SendEmailParams, messageID string, sendErr error) {
	if s.db == nil {
		return
	}

	status := models.EmailStatusSent
	var msgID, errText *string
	if sendErr != nil {
		status = models.EmailStatusFailed
		e := sendErr.Error()
		errText = &e
	} else if messageID != "" {
		msgID = &messageID
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO email_logs (recipient, subject, type, status, message_id, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		params.To, params.Subject, string(params.Type), string(status), msgID, errText,
	)
	if err != nil {
		logging.Error("Failed to write email log", map[string]interface{}{"error": err.Error(), "recipient": params.To})
	}
}

// Missing template data fields render as generic copy rather than
// failing the send.

func dataString(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return s
}

func (s *EmailService) renderEventInvitationEmail(data map[string]any) (html, text string) {
	eventTitle := dataString(data, "event_title")
	if eventTitle == "" {
		eventTitle = dataString(data, "eventTitle")
	}
	if eventTitle == "" {
		eventTitle = "a session"
	}
	inviter := dataString(data, "inviter_name")
	if inviter == "" {
		inviter = dataString(data, "inviterName")
	}
	if inviter == "" {
		inviter = "A friend"
	}
	when := dataString(data, "event_date")
	where := dataString(data, "event_location")
	eventURL := fmt.Sprintf("%s/events/%s", s.baseURL, dataString(data, "event_id"))

	details := ""
	detailsText := ""
	if when != "" {
		details += fmt.Sprintf(`<p style="margin: 4px 0;">📅 %s</p>`, htmlEscape(when))
		detailsText += "When: " + when + "\n"
	}
	if where != "" {
		details += fmt.Sprintf(`<p style="margin: 4px 0;">📍 %s</p>`, htmlEscape(where))
		detailsText += "Where: " + where + "\n"
	}

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">You're invited! 🍻</h1>

  <p style="font-size: 16px;">%s invited you to <strong>%s</strong>.</p>

  %s

  <p>
    <a href="%s" style="display: inline-block; background: #F59E0B; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 16px 0;">
      View Session
    </a>
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Thirstee - thirstee.app</p>
</body>
</html>`,
		htmlEscape(inviter),
		htmlEscape(eventTitle),
		details,
		eventURL,
	)

	text = fmt.Sprintf(`%s invited you to %s.

%sView the session: %s

--
Thirstee
thirstee.app`, inviter, eventTitle, detailsText, eventURL)

	return html, text
}

func (s *EmailService) renderCrewInvitationEmail(data map[string]any) (html, text string) {
	crewName := dataString(data, "crew_name")
	if crewName == "" {
		crewName = dataString(data, "crewName")
	}
	if crewName == "" {
		crewName = "a crew"
	}
	inviter := dataString(data, "inviter_name")
	if inviter == "" {
		inviter = dataString(data, "inviterName")
	}
	if inviter == "" {
		inviter = "A friend"
	}
	crewURL := fmt.Sprintf("%s/crews", s.baseURL)

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; font-size: 24px;">Join the crew 🤘</h1>

  <p style="font-size: 16px;">%s invited you to join <strong>%s</strong> on Thirstee.</p>

  <p>
    <a href="%s" style="display: inline-block; background: #F59E0B; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 16px 0;">
      View Invitation
    </a>
  </p>

  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Thirstee - thirstee.app</p>
</body>
</html>`,
		htmlEscape(inviter),
		htmlEscape(crewName),
		crewURL,
	)

	text = fmt.Sprintf(`%s invited you to join %s on Thirstee.

View the invitation: %s

--
Thirstee
thirstee.app`, inviter, crewName, crewURL)

	return html, text
}

func htmlEscape(value string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(value)
}

// ResendProvider sends emails using the Resend API.
type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(apiKey),
	}
}

func (p *ResendProvider) Send(ctx context.Context, email *Email) (string, error) {
	params := &resend.SendEmailRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("sending email via Resend: %w", err)
	}

	logging.Info("Email sent via Resend", map[string]interface{}{"to": email.To, "subject": email.Subject, "message_id": sent.Id})
	return sent.Id, nil
}

// SMTPProvider sends emails via SMTP (for Mailpit in local dev).
type SMTPProvider struct {
	host string
	port int
	from string
}

func NewSMTPProvider(host string, port int, from string) *SMTPProvider {
	return &SMTPProvider{host: host, port: port, from: from}
}

func (p *SMTPProvider) Send(ctx context.Context, email *Email) (string, error) {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", email.From))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTML)

	if err := smtp.SendMail(addr, nil, p.from, []string{email.To}, buf.Bytes()); err != nil {
		return "", fmt.Errorf("sending email via SMTP: %w", err)
	}

	logging.Info("Email sent via SMTP", map[string]interface{}{"to": email.To, "subject": email.Subject})
	return "", nil
}

// ConsoleProvider logs emails to stdout (for development and tests).
type ConsoleProvider struct{}

func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

func (p *ConsoleProvider) Send(ctx context.Context, email *Email) (string, error) {
	logging.Info("=== EMAIL (Console Provider) ===", map[string]interface{}{"to": email.To, "subject": email.Subject})
	fmt.Printf("\n=== EMAIL ===\n")
	fmt.Printf("To: %s\n", email.To)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("---\n")
	fmt.Printf("%s\n", email.Text)
	fmt.Printf("=============\n\n")
	return "", nil
}
