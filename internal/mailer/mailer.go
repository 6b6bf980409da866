package mailer

import "context"

// Email is the transport-agnostic outbound message.
type Email struct {
	From     string // bare sender address, also used as the envelope sender
	FromName string
	To       []string
	Subject  string
	Text     string
	HTML     string
	Headers  map[string]string
}

// Mailer sends a single email. Delivery is strictly best-effort in this
// application: callers log failures and never retry.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// Nop discards emails; used when mail.provider is "none".
type Nop struct{}

var _ Mailer = (*Nop)(nil)

func (Nop) Send(ctx context.Context, e Email) error { return nil }
