package notify

import (
	"context"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/platform/logger"
)

// LogSender writes messages to the log instead of delivering them. It is the
// default transport for local development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With(slog.String("component", "log_sender"))}
}

var _ Sender = (*LogSender)(nil)

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	if _, err := addressOnly(to); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("outbound message",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)))
	return nil
}
