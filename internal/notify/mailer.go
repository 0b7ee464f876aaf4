// Package notify delivers out-of-band notifications: password reset
// emails and booking events for downstream consumers.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailersend/mailersend-go"
)

// Mailer sends password reset codes to users.
type Mailer interface {
	SendResetCode(ctx context.Context, to, code string) error
}

// MailerSend delivers mail through the MailerSend API.
type MailerSend struct {
	client    *mailersend.Mailersend
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewMailerSend constructs a MailerSend mailer.
func NewMailerSend(apiKey, fromEmail, fromName string, logger *slog.Logger) *MailerSend {
	return &MailerSend{
		client:    mailersend.NewMailersend(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// SendResetCode emails code to the given address.
func (m *MailerSend) SendResetCode(ctx context.Context, to, code string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: m.fromName, Email: m.fromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: to}})
	message.SetSubject("Your password reset code")
	message.SetText(fmt.Sprintf("Your password reset code is %s. It expires in 15 minutes.", code))
	message.SetHTML(fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p><p>It expires in 15 minutes.</p>", code))

	res, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	m.logger.Info("reset email sent", "to", to, "message_id", res.Header.Get("X-Message-Id"))
	return nil
}

// LogMailer writes reset codes to the log instead of sending mail.
// Used when no MailerSend key is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendResetCode logs the code at warn level.
func (m *LogMailer) SendResetCode(_ context.Context, to, code string) error {
	m.logger.Warn("mailer not configured, logging reset code", "to", to, "code", code)
	return nil
}
