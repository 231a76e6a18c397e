package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func testConfig() SMTPConfig {
	return SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "mailer",
		Password: "pw",
		From:     "no-reply@babypal.local",
		Timeout:  time.Second,
	}
}

func TestSMTPSender_SendPasswordReset(t *testing.T) {
	orig := dialAndSend
	t.Cleanup(func() { dialAndSend = orig })

	var sent []*mail.Msg
	var hadDeadline bool
	dialAndSend = func(ctx context.Context, c *mail.Client, msgs ...*mail.Msg) error {
		_, hadDeadline = ctx.Deadline()
		sent = append(sent, msgs...)
		return nil
	}

	s := NewSMTPSender(testConfig(), logging.Discard())
	err := s.SendPasswordReset(context.Background(), "alice@example.com", "http://front/reset-password?token=abc")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.True(t, hadDeadline)

	rcpts, err := sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, rcpts)
	assert.Equal(t, []string{"Password Reset Request"}, sent[0].GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reset-password?token=abc")
}

func TestSMTPSender_SendError(t *testing.T) {
	orig := dialAndSend
	t.Cleanup(func() { dialAndSend = orig })
	dialAndSend = func(context.Context, *mail.Client, ...*mail.Msg) error {
		return errors.New("connection refused")
	}

	s := NewSMTPSender(testConfig(), logging.Discard())
	err := s.SendPasswordReset(context.Background(), "alice@example.com", "u")
	assert.ErrorContains(t, err, "failed to send email: connection refused")
}

func TestSMTPSender_BadRecipient(t *testing.T) {
	s := NewSMTPSender(testConfig(), logging.Discard())
	err := s.SendPasswordReset(context.Background(), "not an address", "u")
	assert.ErrorContains(t, err, "mail to")
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, NewLogSender(l).SendPasswordReset(context.Background(), "a@b.c", "http://x/reset-password?token=t"))
	assert.Contains(t, buf.String(), "reset-password?token=t")
}
