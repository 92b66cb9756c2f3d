package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("email has no recipients")

// SendRequest is one outgoing message.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default, e.g. "Igreja <nao-responda@igreja.org>"
	Subject string
	HTML    string
	ReplyTo string
	Kind    string // tags the message at the provider, e.g. "confirmation"
}

// SendResult is the provider's receipt for a message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
