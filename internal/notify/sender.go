// Package notify delivers outbound messages to users. Each transport
// implements Sender; the reminder engine and the password reset flow depend
// only on that interface.
package notify

import (
	"context"
	"errors"
)

// Sender delivers one message to one recipient. The body is HTML.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ErrInvalidRecipient is returned when the recipient address cannot be used.
var ErrInvalidRecipient = errors.New("invalid recipient")

// SenderFunc adapts a plain function to the Sender interface.
type SenderFunc func(ctx context.Context, to, subject, body string) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}
