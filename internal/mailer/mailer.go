// Package mailer delivers composed notification messages through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/jjdow676/donationform-backend-test/internal/apperror"
	"github.com/jjdow676/donationform-backend-test/internal/model"
)

// Mailer defines the interface for sending one composed message.
type Mailer interface {
	Send(ctx context.Context, msg *model.NotificationMessage) error
}

// sendGrid sends messages through the SendGrid v3 API.
type sendGrid struct {
	client  *sendgrid.Client
	sandbox bool
}

// New creates a SendGrid-backed Mailer. With sandbox enabled the API
// validates the message but suppresses actual delivery.
func New(apiKey string, sandbox bool) Mailer {
	return &sendGrid{client: sendgrid.NewSendClient(apiKey), sandbox: sandbox}
}

// Send delivers one message. A non-2xx API response counts as a failure.
func (s *sendGrid) Send(ctx context.Context, msg *model.NotificationMessage) error {
	resp, err := s.client.SendWithContext(ctx, build(msg, s.sandbox))
	if err != nil {
		return &apperror.NotificationSendError{Cause: err}
	}
	if resp.StatusCode >= 300 {
		return &apperror.NotificationSendError{
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("sendgrid response: %s", resp.Body),
		}
	}
	return nil
}

// build maps a NotificationMessage onto the SendGrid v3 mail object.
func build(msg *model.NotificationMessage, sandbox bool) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", msg.Sender))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.Recipients {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", msg.BodyHTML))

	if sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		m.SetMailSettings(settings)
	}
	return m
}
