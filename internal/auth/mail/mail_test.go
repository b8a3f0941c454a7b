package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lecternhq/lectern/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestOTPMessage(t *testing.T) {
	t.Parallel()

	msg := OTPMessage("ada@example.com", "verify your email", "042137", 10*time.Minute)
	require.Equal(t, "ada@example.com", msg.To)
	require.Contains(t, msg.Body, "042137")
	require.Contains(t, msg.Body, "10 minutes")
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw := string(buildMessage("no-reply@lectern.local", Message{
		To:      "ada@example.com",
		Subject: "Hello\r\nBcc: evil@example.com",
		Body:    "line one\nline two\n",
	}, now))

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	require.Contains(t, head, "From: no-reply@lectern.local\r\n")
	require.Contains(t, head, "Subject: HelloBcc: evil@example.com\r\n")
	require.NotContains(t, head, "\r\nBcc:")
	require.Contains(t, head, "@lectern.local>\r\n")
	require.Contains(t, head, "Date: Sun, 01 Mar 2026 12:00:00 +0000")
	require.Equal(t, "line one\r\nline two\r\n", body)
}

func TestNewSMTPMailerDefaults(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPMailer(SMTPConfig{From: "a@b.c"})
	require.Error(t, err)

	_, err = NewSMTPMailer(SMTPConfig{Host: "smtp.example.com"})
	require.Error(t, err)

	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", From: "a@b.c"})
	require.NoError(t, err)
	require.Equal(t, 587, m.cfg.Port)
	require.Equal(t, 10*time.Second, m.cfg.Timeout)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	m, err := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "a@b.c"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Send(ctx, Message{To: "x@y.z"}), context.Canceled)
}

func TestLogMailerWritesToRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := slogx.WithContext(context.Background(), logger)

	require.NoError(t, LogMailer{}.Send(ctx, OTPMessage("ada@example.com", "verify your email", "123456", time.Minute)))
	require.Contains(t, buf.String(), `"msg":"mail_sent"`)
	require.Contains(t, buf.String(), "123456")
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	require.NoError(t, r.Send(context.Background(), Message{To: "a@x", Body: "1"}))
	require.NoError(t, r.Send(context.Background(), Message{To: "a@x", Body: "2"}))

	last, ok := r.Last("a@x")
	require.True(t, ok)
	require.Equal(t, "2", last.Body)

	_, ok = r.Last("b@x")
	require.False(t, ok)

	boom := errors.New("boom")
	r.SetErr(boom)
	require.ErrorIs(t, r.Send(context.Background(), Message{To: "b@x"}), boom)
	require.Len(t, r.Messages(), 3)
}
