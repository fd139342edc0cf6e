package email

import (
	"context"
	"sync"

	"nibog/internal/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConsoleSender logs messages instead of delivering them. Sent messages are
// kept in memory for inspection.
type ConsoleSender struct {
	cfg *config.Config

	mu   sync.Mutex
	sent []Message
}

var _ Sender = (*ConsoleSender)(nil)

func NewConsoleSender(cfg *config.Config) *ConsoleSender {
	return &ConsoleSender{cfg: cfg}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := "console-" + uuid.NewString()
	logrus.WithFields(logrus.Fields{
		"from":       s.cfg.Credentials().EmailFrom,
		"to":         msg.To,
		"subject":    msg.Subject,
		"message_id": id,
	}).Info(msg.Text)

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return id, nil
}

func (s *ConsoleSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
