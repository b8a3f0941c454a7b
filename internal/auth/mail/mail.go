// Package mail delivers the plain-text notifications the auth flows send:
// one-time codes and the "email verified" confirmation. Delivery is
// best-effort; callers log and audit failures and carry on.
package mail

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// OTPMessage renders the message carrying a one-time code. purpose is the
// human readable reason ("verify your email", "reset your password").
func OTPMessage(to, purpose, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your Lectern code",
		Body: fmt.Sprintf(
			"Use this code to %s: %s\n\nIt expires in %d minutes. If you did not ask for it, ignore this email.\n",
			purpose, code, int(ttl.Minutes()),
		),
	}
}

// VerifiedMessage confirms an address was verified.
func VerifiedMessage(to, name string) Message {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return Message{
		To:      to,
		Subject: "Your Lectern email is verified",
		Body:    fmt.Sprintf("Hi %s,\n\nYour email address is verified and your account is ready.\n", name),
	}
}
