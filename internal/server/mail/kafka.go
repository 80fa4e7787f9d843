package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// EventMailRequested is the event type published for every message.
const EventMailRequested = "mail.requested"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type mailEvent struct {
	Event string    `json:"event"`
	Mail  Message   `json:"mail"`
	At    time.Time `json:"at"`
}

// KafkaSender publishes messages as mail.requested events for a downstream
// mail service. Records are keyed by recipient.
type KafkaSender struct {
	writer messageWriter
	logger logging.Logger
}

func NewKafkaSender(brokers []string, topic string, logger logging.Logger) (*KafkaSender, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers are required", ErrInvalidConfig)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: kafka topic is required", ErrInvalidConfig)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaSender(w, logger), nil
}

func newKafkaSender(w messageWriter, logger logging.Logger) *KafkaSender {
	return &KafkaSender{writer: w, logger: logger.With("module", "mail", "driver", DriverKafka)}
}

func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(mailEvent{Event: EventMailRequested, Mail: msg, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal mail event: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: value,
	}); err != nil {
		return errors.Join(ErrSendFailed, err)
	}

	s.logger.Debug(ctx, "mail event published", "to", msg.To)
	return nil
}

// Close flushes pending writes and releases the connection.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
