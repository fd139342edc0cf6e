package config

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := FromViper(v)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 10*time.Second, cfg.WhatsAppTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.DispatchDelay)
	assert.Equal(t, 9, cfg.EventsPageSize)
	assert.Equal(t, "91", cfg.DefaultCountryCode)
	assert.Equal(t, "console", cfg.EmailProvider)
}

func TestFromViperEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DISPATCH_DELAY", "2s")
	t.Setenv("EVENTS_PAGE_SIZE", "12")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.DispatchDelay)
	assert.Equal(t, 12, cfg.EventsPageSize)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5432", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5432 sslmode=disable", cfg.PostgresDSN())
}

func TestApplySettings(t *testing.T) {
	cfg := &Config{WhatsAppToken: "old", EmailFrom: "a@nibog.in"}

	require.NoError(t, cfg.ApplySettings(map[string]string{"WHATSAPP_TOKEN": "abc", "WABA_ID": "W1"}))
	creds := cfg.Credentials()
	assert.Equal(t, "abc", creds.WhatsAppToken)
	assert.Equal(t, "W1", creds.WhatsAppBusinessAccountID)
	assert.Equal(t, "a@nibog.in", creds.EmailFrom)

	err := cfg.ApplySettings(map[string]string{"PHONE_NUMBER_ID": "P1", "DB_PASSWORD": "x"})
	assert.Error(t, err)
	v, ok := cfg.Setting("PHONE_NUMBER_ID")
	assert.True(t, ok)
	assert.Empty(t, v, "a rejected update changes nothing")

	_, ok = cfg.Setting("DB_PASSWORD")
	assert.False(t, ok)
	assert.Equal(t, []string{"EMAIL_FROM", "EMAIL_FROM_NAME", "PHONE_NUMBER_ID", "SENDGRID_API_KEY", "VERIFY_TOKEN", "WABA_ID", "WHATSAPP_TOKEN"}, cfg.SettingKeys())
}

func TestCredentialsConcurrentWithApply(t *testing.T) {
	cfg := &Config{}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = cfg.ApplySettings(map[string]string{"WHATSAPP_TOKEN": fmt.Sprintf("t%d", i), "PHONE_NUMBER_ID": fmt.Sprintf("p%d", i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			creds := cfg.Credentials()
			if creds.WhatsAppToken != "" {
				assert.Equal(t, "t", creds.WhatsAppToken[:1])
				assert.Equal(t, creds.WhatsAppToken[1:], creds.PhoneNumberID[1:], "snapshot is consistent")
			}
		}
	}()
	wg.Wait()
	assert.Equal(t, "t199", cfg.Credentials().WhatsAppToken)
}
