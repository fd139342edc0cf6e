package dispatch

import (
	"context"
	"strings"

	"nibog/internal/email"
	"nibog/internal/models"
	"nibog/internal/whatsapp"
)

type EmailCampaign struct {
	Name    string `json:"template"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
	HTML    bool   `json:"html"`
}

// EmailJob excludes recipients whose email fails ValidEmail.
func EmailJob(sender email.Sender, c EmailCampaign, recipients []Recipient) Job {
	return Job{
		Channel:    models.ChannelEmail,
		Template:   c.Name,
		Recipients: recipients,
		Prepare: func(r Recipient) (string, bool) {
			addr := r.Email()
			return addr, ValidEmail(addr)
		},
		Send: func(ctx context.Context, address string, r Recipient) (Delivery, error) {
			body := Render(c.Body, r)
			msg := email.Message{
				To:      address,
				ToName:  r.Name(),
				Subject: Render(c.Subject, r),
			}
			if c.HTML {
				msg.HTML = body
			} else {
				msg.Text = body
			}
			id, err := sender.Send(ctx, msg)
			return Delivery{Content: msg.Subject, ProviderID: id}, err
		},
	}
}

// MessageSender is the part of the WhatsApp client a bulk run needs.
type MessageSender interface {
	SendRawMessage(ctx context.Context, msg whatsapp.GenericMessage) (string, error)
}

// WhatsAppCampaign sends either an approved template, whose body parameters
// are rendered from Params, or a free text Message.
type WhatsAppCampaign struct {
	TemplateName string   `json:"template_name"`
	Language     string   `json:"language"`
	Params       []string `json:"params"`
	Message      string   `json:"message"`
}

// WhatsAppJob normalises phone numbers but never rejects a recipient.
func WhatsAppJob(client MessageSender, c WhatsAppCampaign, countryCode string, recipients []Recipient) Job {
	name := c.TemplateName
	if name == "" {
		name = "text"
	}
	return Job{
		Channel:    models.ChannelWhatsApp,
		Template:   name,
		Recipients: recipients,
		Prepare: func(r Recipient) (string, bool) {
			return NormalizePhone(r.Phone(), countryCode), true
		},
		Send: func(ctx context.Context, address string, r Recipient) (Delivery, error) {
			var msg whatsapp.GenericMessage
			if c.TemplateName != "" {
				params := make([]string, 0, len(c.Params))
				for _, p := range c.Params {
					params = append(params, Render(p, r))
				}
				msg = whatsapp.TemplateMessage(address, c.TemplateName, c.Language, params)
			} else {
				msg = whatsapp.TextMessage(address, Render(c.Message, r))
			}
			id, err := client.SendRawMessage(ctx, msg)
			return Delivery{Content: msg.Content(), ProviderID: id}, err
		},
	}
}

// FromBookings builds an audience from bookings, one recipient per booking.
func FromBookings(bookings []models.Booking) []Recipient {
	out := make([]Recipient, 0, len(bookings))
	for _, b := range bookings {
		r := Recipient{
			"name":        b.ParentName,
			"parent_name": b.ParentName,
			"child_name":  b.ChildName,
			"email":       b.Email,
			"phone":       b.Phone,
			"booking_ref": b.BookingRef,
			"games":       strings.Join(b.GameNames(), ", "),
		}
		if b.Event != nil {
			r["event"] = b.Event.Title
			r["event_title"] = b.Event.Title
			r["event_date"] = b.Event.Day().Format("02 Jan 2006")
			r["venue"] = b.Event.Venue
			r["city"] = b.Event.City
		}
		out = append(out, r)
	}
	return out
}
