package mail

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "mail", "driver", DriverLog)}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.Info(ctx, "email",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.HTMLBody,
	)
	return nil
}
