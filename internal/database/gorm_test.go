package database

import (
	"testing"

	"nibog/internal/config"
	"nibog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, Seed(db))
	require.NoError(t, db.Model(&models.PolicyPage{}).Where("slug = ?", "terms").Update("content", "# Terms").Error)
	require.NoError(t, Seed(db))

	var pages []models.PolicyPage
	require.NoError(t, db.Order("slug").Find(&pages).Error)
	require.Len(t, pages, 3)
	assert.Equal(t, "privacy", pages[0].Slug)
	assert.Equal(t, "# Terms", pages[2].Content)

	var footers int64
	db.Model(&models.FooterSetting{}).Count(&footers)
	assert.EqualValues(t, 1, footers)
}

func TestSyncConfig(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Create(&models.SystemSetting{Key: "WHATSAPP_TOKEN", Value: "from-db"}).Error)

	cfg := &config.Config{WhatsAppToken: "from-env", PhoneNumberID: "12345"}
	require.NoError(t, SyncConfig(db, cfg))

	creds := cfg.Credentials()
	assert.Equal(t, "from-db", creds.WhatsAppToken)
	assert.Equal(t, "12345", creds.PhoneNumberID)

	var stored models.SystemSetting
	require.NoError(t, db.Where("key = ?", "PHONE_NUMBER_ID").First(&stored).Error)
	assert.Equal(t, "12345", stored.Value)

	var count int64
	db.Model(&models.SystemSetting{}).Where("key = ?", "SENDGRID_API_KEY").Count(&count)
	assert.Zero(t, count, "empty env values are not persisted")
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestSerialTables(t *testing.T) {
	db := openMemory(t)
	tables, err := SerialTables(db)
	require.NoError(t, err)

	assert.Contains(t, tables, "bookings")
	assert.Contains(t, tables, "notification_logs")
	assert.NotContains(t, tables, "policy_pages")
	assert.NotContains(t, tables, "dispatch_runs")
	assert.NotContains(t, tables, "whatsapp_templates")
}
