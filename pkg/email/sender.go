package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered e-mail.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"-"`
	TextBody string `json:"-"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the fields every transport requires.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q is not an address", ErrInvalidMessage, m.To)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// NewSender picks the Postmark transport when it is configured and the dev
// file sender otherwise.
func NewSender(cfg Config) (Sender, error) {
	if cfg.UsePostmark() {
		return NewPostmarkSender(cfg)
	}
	return NewDevSender(cfg.DevDir), nil
}
