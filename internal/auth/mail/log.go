package mail

import (
	"context"
	"log/slog"

	"github.com/lecternhq/lectern/pkg/slogx"
)

// LogMailer writes messages to the request logger instead of delivering
// them. It is the development driver: codes show up in the service logs.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	slogx.FromContext(ctx).LogAttrs(ctx, slog.LevelInfo, "mail_sent",
		slog.String("mail_driver", "log"),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
