package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/email"
	"nibog/internal/models"
	"nibog/internal/whatsapp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMessenger struct {
	to   string
	data models.WhatsAppBookingData
	err  error
}

func (f *fakeMessenger) SendBookingConfirmation(ctx context.Context, d models.WhatsAppBookingData, to string) (whatsapp.GenericMessage, string, error) {
	f.to, f.data = to, d
	msg := whatsapp.BookingConfirmation(d, to, "booking_confirmation", "en")
	if f.err != nil {
		return msg, "", f.err
	}
	return msg, "wamid.1", nil
}

func setup(t *testing.T) (*gorm.DB, *email.ConsoleSender, *fakeMessenger, *Notifier) {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	cfg := &config.Config{DefaultCountryCode: "91", EmailFrom: "noreply@nibog.in"}
	mailer := email.NewConsoleSender(cfg)
	wa := &fakeMessenger{}
	return db, mailer, wa, NewNotifier(db, cfg, mailer, wa)
}

func booking() *models.Booking {
	return &models.Booking{
		BookingRef:  "NIB-ABCDEF12",
		ParentName:  "Priya",
		ChildName:   "Aarav",
		Email:       "priya@x.com",
		Phone:       "098765 43210",
		TotalAmount: 799,
		Event:       &models.Event{Title: "NIBOG Pune", Venue: "Balewadi", City: "Pune", EventDate: time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC)},
		Games:       []models.BookingGame{{GameName: "Running Race"}},
	}
}

func TestBookingConfirmedSendsBothChannels(t *testing.T) {
	db, mailer, wa, n := setup(t)

	n.BookingConfirmed(context.Background(), booking())

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Booking confirmed: NIBOG Pune (NIB-ABCDEF12)", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "Balewadi, Pune")
	assert.Contains(t, sent[0].Text, "₹799.00")

	assert.Equal(t, "919876543210", wa.to)
	assert.Equal(t, "Balewadi, Pune", wa.data.Venue)

	var logs []models.NotificationLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ChannelEmail, logs[0].Channel)
	assert.Equal(t, models.ChannelWhatsApp, logs[1].Channel)
	assert.Equal(t, "wamid.1", logs[1].ProviderMessageID)
}

func TestEmailConfirmationUsesActiveTemplate(t *testing.T) {
	db, mailer, _, n := setup(t)
	require.NoError(t, db.Create(&models.EmailTemplate{
		Name: "confirm", Subject: "You're in, {{parent_name}}", Body: "Ref {{booking_ref}}",
		Type: TemplateTypeBookingConfirmation, IsActive: true,
	}).Error)

	_, err := n.SendEmailConfirmation(context.Background(), booking())
	require.NoError(t, err)
	assert.Equal(t, "You're in, Priya", mailer.Sent()[0].Subject)
	assert.Equal(t, "Ref NIB-ABCDEF12", mailer.Sent()[0].Text)
}

func TestFailuresAreLoggedNotReturned(t *testing.T) {
	db, mailer, wa, n := setup(t)
	wa.err = errors.New("timeout")
	b := booking()
	b.Email = "not-an-email"

	n.BookingConfirmed(context.Background(), b)

	assert.Empty(t, mailer.Sent())
	var failed int64
	db.Model(&models.NotificationLog{}).Where("status = ?", models.LogStatusFailed).Count(&failed)
	assert.EqualValues(t, 1, failed)
}
