package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// defaultPublishTimeout bounds a publish when the caller's context has no deadline.
const defaultPublishTimeout = 3 * time.Second

// messageWriter is the subset of *kafka.Writer used by KafkaSender.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboundEmail is the JSON payload published for a downstream mailer.
type OutboundEmail struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTMLBody  string    `json:"html_body"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaSender publishes messages to a topic instead of delivering them
// directly; a separate mailer consumes the topic.
type KafkaSender struct {
	writer  messageWriter
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewKafkaSender creates a sender publishing to topic on brokers.
func NewKafkaSender(brokers []string, topic string, logger *slog.Logger) (*KafkaSender, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka sender requires brokers and a topic")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaSender(w, logger), nil
}

func newKafkaSender(w messageWriter, logger *slog.Logger) *KafkaSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSender{
		writer:  w,
		timeout: defaultPublishTimeout,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "kafka_sender")),
	}
}

var _ Sender = (*KafkaSender)(nil)

// Send implements Sender. Messages are keyed by recipient so one user's
// messages stay ordered within a partition.
func (s *KafkaSender) Send(ctx context.Context, to, subject, body string) error {
	rcpt, err := addressOnly(to)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(OutboundEmail{
		To:        rcpt,
		Subject:   subject,
		HTMLBody:  body,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode outbound email: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rcpt),
		Value: payload,
		Time:  s.now(),
	}); err != nil {
		return fmt.Errorf("kafka publish failed: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
