package email

import (
	"context"

	"nibog/internal/config"
)

// Message is one rendered email to one recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message and returns the provider message id when known.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender picks the transport configured by EMAIL_PROVIDER.
func NewSender(cfg *config.Config) Sender {
	if cfg.EmailProvider == "sendgrid" {
		return NewSendgridSender(cfg)
	}
	return NewConsoleSender(cfg)
}
