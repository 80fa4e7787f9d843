// Package mail delivers outbound email through a pluggable driver: the
// logger (development), Postmark (transactional API) or a Kafka topic
// consumed by a separate mail service.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const (
	DriverLog      = "log"
	DriverPostmark = "postmark"
	DriverKafka    = "kafka"
)

var (
	ErrInvalidConfig  = errors.New("invalid mail config")
	ErrInvalidMessage = errors.New("invalid mail message")
	ErrSendFailed     = errors.New("failed to send email")
)

// Message is a single HTML email.
type Message struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// Validate checks the fields every driver needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	return nil
}

// Sender sends a message. Delivery is fire-and-forget from the caller's
// point of view: no retry is attempted.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Driver               string
	PostmarkServerToken  string
	PostmarkAccountToken string
	KafkaBrokers         []string
	KafkaTopic           string
}

// New builds the Sender selected by cfg.Driver. An empty driver means DriverLog.
func New(cfg Config, logger logging.Logger) (Sender, error) {
	switch cfg.Driver {
	case "", DriverLog:
		return NewLogSender(logger), nil
	case DriverPostmark:
		return NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	case DriverKafka:
		return NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
