package utils

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var ErrMailerNotConfigured = errors.New("mailer is not configured")

// MailSender delivers messages; *gomail.Dialer satisfies it.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	sender MailSender
	from   string
	logger *zap.Logger
}

// NewMailer builds a Mailer backed by an SMTP dialer. An empty host yields a
// Mailer whose sends fail with ErrMailerNotConfigured.
func NewMailer(host string, port int, user, password, from string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{from: from, logger: logger}
	if host != "" {
		m.sender = gomail.NewDialer(host, port, user, password)
	}
	return m
}

func NewMailerWithSender(sender MailSender, from string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{sender: sender, from: from, logger: logger}
}

func (m *Mailer) Configured() bool {
	return m != nil && m.sender != nil && m.from != ""
}

// BuildMessage prepares an email with an optional attachment.
func (m *Mailer) BuildMessage(to, subject, body, attachmentPath string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if attachmentPath != "" {
		msg.Attach(attachmentPath, gomail.Rename(filepath.Base(attachmentPath)))
	}
	return msg
}

// SendEmail sends one message and returns an error if it fails.
func (m *Mailer) SendEmail(to, subject, body, attachmentPath string) error {
	if !m.Configured() {
		m.logger.Error("Email send failed: mailer is not configured", zap.String("to_email", to), zap.String("subject", subject))
		return ErrMailerNotConfigured
	}

	if err := m.sender.DialAndSend(m.BuildMessage(to, subject, body, attachmentPath)); err != nil {
		m.logger.Error("Failed to send email",
			zap.String("to_email", to),
			zap.String("subject", subject),
			zap.Bool("has_attachment", attachmentPath != ""),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent", zap.String("to_email", to), zap.String("subject", subject))
	return nil
}
