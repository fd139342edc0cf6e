package notify

import (
	"context"
	"errors"
	"fmt"

	"nibog/internal/config"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/metrics"
	"nibog/internal/models"
	"nibog/internal/whatsapp"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const TemplateTypeBookingConfirmation = "booking_confirmation"

const (
	defaultSubject = "Booking confirmed: {{event_title}} ({{booking_ref}})"
	defaultBody    = `Hi {{parent_name}},

Thank you for registering {{child_name}} for {{event_title}} on {{event_date}} at {{venue}}.

Games: {{games}}
Amount: {{total_amount}}
Booking reference: {{booking_ref}}

See you there!
Team NIBOG`
)

// BookingMessenger is the part of the WhatsApp client confirmations need.
type BookingMessenger interface {
	SendBookingConfirmation(ctx context.Context, d models.WhatsAppBookingData, to string) (whatsapp.GenericMessage, string, error)
}

// Notifier sends booking confirmations by email and WhatsApp and logs each send.
type Notifier struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer email.Sender
	wa     BookingMessenger
}

func NewNotifier(db *gorm.DB, cfg *config.Config, mailer email.Sender, wa BookingMessenger) *Notifier {
	return &Notifier{db: db, cfg: cfg, mailer: mailer, wa: wa}
}

// BookingConfirmed sends both confirmations. Failures are logged, never returned.
func (n *Notifier) BookingConfirmed(ctx context.Context, b *models.Booking) {
	if _, err := n.SendEmailConfirmation(ctx, b); err != nil {
		logrus.WithError(err).WithField("booking_ref", b.BookingRef).Warn("booking confirmation email failed")
	}
	if _, err := n.SendWhatsAppConfirmation(ctx, b); err != nil {
		logrus.WithError(err).WithField("booking_ref", b.BookingRef).Warn("booking confirmation whatsapp failed")
	}
}

// Recipient exposes the booking fields available to confirmation templates.
func Recipient(b *models.Booking) dispatch.Recipient {
	r := dispatch.FromBookings([]models.Booking{*b})[0]
	d := b.WhatsAppData()
	r["venue"] = d.Venue
	r["total_amount"] = fmt.Sprintf("₹%.2f", b.TotalAmount)
	return r
}

func (n *Notifier) SendEmailConfirmation(ctx context.Context, b *models.Booking) (string, error) {
	if !dispatch.ValidEmail(b.Email) {
		return "", models.ErrInvalidEmail
	}

	subject, body := defaultSubject, defaultBody
	var tmpl models.EmailTemplate
	err := n.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", TemplateTypeBookingConfirmation, true).
		Order("id").
		First(&tmpl).Error
	switch {
	case err == nil:
		subject, body = tmpl.Subject, tmpl.Body
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("load confirmation template: %w", err)
	}

	r := Recipient(b)
	msg := email.Message{
		To:      b.Email,
		ToName:  b.ParentName,
		Subject: dispatch.Render(subject, r),
		Text:    dispatch.Render(body, r),
	}
	id, sendErr := n.mailer.Send(ctx, msg)
	n.log(models.ChannelEmail, b.Email, msg.Subject, id, sendErr)
	return id, sendErr
}

func (n *Notifier) SendWhatsAppConfirmation(ctx context.Context, b *models.Booking) (string, error) {
	to := dispatch.NormalizePhone(b.Phone, n.cfg.DefaultCountryCode)
	msg, id, sendErr := n.wa.SendBookingConfirmation(ctx, b.WhatsAppData(), to)
	n.log(models.ChannelWhatsApp, to, msg.Content(), id, sendErr)
	return id, sendErr
}

func (n *Notifier) log(channel, recipient, content, providerID string, sendErr error) {
	metrics.IncNotification(channel, sendErr == nil)
	entry := models.OutboundLog(channel, recipient, content, providerID, "", sendErr)
	if err := n.db.Create(&entry).Error; err != nil {
		logrus.WithError(err).Error("failed to write notification log")
	}
}
