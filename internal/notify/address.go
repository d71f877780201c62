package notify

import (
	"fmt"

	"github.com/emersion/go-message/mail"
)

// addressOnly strips any display name, returning the bare addr-spec.
func addressOnly(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	return parsed.Address, nil
}
