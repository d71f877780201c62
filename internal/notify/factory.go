package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tasklytics/tasklytics-api/internal/config"
)

// New builds the Sender selected by cfg.Transport. The returned closer
// releases transport resources and is never nil.
func New(ctx context.Context, cfg config.NotifierConfig, logger *slog.Logger) (Sender, io.Closer, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From, logger), nopCloser{}, nil
	case "ses":
		s, err := NewSESSender(ctx, cfg.SES.Region, cfg.From, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "kafka":
		s, err := NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "log", "":
		return NewLogSender(logger), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notifier transport %q", cfg.Transport)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
