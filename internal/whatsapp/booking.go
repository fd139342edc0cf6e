package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"nibog/internal/models"
)

// BookingConfirmationParams orders the booking fields the way the approved
// confirmation template numbers its placeholders ({{1}}..{{8}}).
func BookingConfirmationParams(d models.WhatsAppBookingData) []string {
	date := ""
	if !d.EventDate.IsZero() {
		date = d.EventDate.UTC().Format("02 Jan 2006")
	}
	return []string{
		d.ParentName,
		d.ChildName,
		d.EventTitle,
		date,
		d.Venue,
		strings.Join(d.Games, ", "),
		fmt.Sprintf("₹%.2f", d.TotalAmount),
		d.BookingRef,
	}
}

func BookingConfirmation(d models.WhatsAppBookingData, to, templateName, languageCode string) GenericMessage {
	return TemplateMessage(to, templateName, languageCode, BookingConfirmationParams(d))
}

// SendBookingConfirmation sends the configured confirmation template to the given number.
func (c *Client) SendBookingConfirmation(ctx context.Context, d models.WhatsAppBookingData, to string) (GenericMessage, string, error) {
	msg := BookingConfirmation(d, to, c.Config.WhatsAppConfirmationTemplate, c.Config.WhatsAppLanguage)
	id, err := c.SendRawMessage(ctx, msg)
	return msg, id, err
}
