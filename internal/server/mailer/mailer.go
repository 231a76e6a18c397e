// Package mailer delivers password reset links.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/wneessen/go-mail"
)

// Sender sends the password reset message for resetURL to address to.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// SMTPConfig describes the outbound SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender delivers through an SMTP relay. Each send dials a new
// connection bounded by the configured timeout.
type SMTPSender struct {
	cfg    SMTPConfig
	logger logging.Logger
}

func NewSMTPSender(cfg SMTPConfig, l logging.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: l.With("module", "mailer")}
}

// dialAndSend is a seam for tests.
var dialAndSend = func(ctx context.Context, c *mail.Client, msgs ...*mail.Msg) error {
	return c.DialAndSendWithContext(ctx, msgs...)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	m, err := passwordResetMessage(s.cfg.From, to, resetURL)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(s.cfg.Timeout),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("mail client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := dialAndSend(ctx, c, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info(ctx, "password reset email sent", "to", to)
	return nil
}

func passwordResetMessage(from, to, resetURL string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	m.Subject("Password Reset Request")
	m.SetBodyString(mail.TypeTextPlain, "Click the link to reset your password: "+resetURL)
	return m, nil
}

// LogSender writes the reset link to the log instead of sending mail. It is
// used when no SMTP host is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "mailer")}
}

func (s *LogSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	s.logger.Warn(ctx, "SMTP not configured, password reset link logged only", "to", to, "url", resetURL)
	return nil
}
