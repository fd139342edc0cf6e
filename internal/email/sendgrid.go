package email

import (
	"context"
	"fmt"
	"net/http"

	"nibog/internal/config"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const endpoint = "/v3/mail/send"

type sendgridSender struct {
	cfg *config.Config
}

var _ Sender = (*sendgridSender)(nil)

// NewSendgridSender reads the key and sender address from cfg on every send.
func NewSendgridSender(cfg *config.Config) Sender {
	return &sendgridSender{cfg: cfg}
}

func (s *sendgridSender) prepare(msg Message, creds config.Credentials) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(creds.EmailFromName, creds.EmailFrom))
	m.AddPersonalizations(p)

	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func (s *sendgridSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	creds := s.cfg.Credentials()
	req := sendgrid.GetRequest(creds.SendgridAPIKey, endpoint, s.cfg.SendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg, creds))

	res, err := sendgrid.API(req)
	if err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("sending email - status: %d - body: %s", res.StatusCode, res.Body)
	}

	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}
