package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the subset of the SES v2 client used by SESSender.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail through Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
	logger *slog.Logger
}

// NewSESSender builds an SES sender for region. Credentials come from the
// default AWS chain (environment, shared config, instance role).
func NewSESSender(ctx context.Context, region, from string, logger *slog.Logger) (*SESSender, error) {
	if from == "" {
		return nil, fmt.Errorf("ses sender requires a from address")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(cfg), from, logger), nil
}

func newSESSender(client sesAPI, from string, logger *slog.Logger) *SESSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESSender{
		client: client,
		from:   from,
		logger: logger.With(slog.String("component", "ses_sender")),
	}
}

var _ Sender = (*SESSender)(nil)

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	rcpt, err := addressOnly(to)
	if err != nil {
		return err
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{rcpt},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	s.logger.DebugContext(ctx, "ses message accepted", slog.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
