// Package notify implements the daily notification sweep: one random
// quote fanned out to every subscriber by email, then posted once to a
// chat webhook. Failures stay isolated per recipient.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
)

// sendMailHook allows tests to override SMTP sending behavior.
var sendMailHook = smtp.SendMail

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text email through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Send sends a plain-text email with the given subject to a single
// address.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	_ = ctx
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.Sender, to, subject, body,
	)
	return sendMailHook(addr, auth, m.Sender, []string{to}, []byte(msg))
}
