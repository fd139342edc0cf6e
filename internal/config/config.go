package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	VerifyToken                  string
	WhatsAppToken                string
	PhoneNumberID                string
	WhatsAppBusinessAccountID    string
	WhatsAppAPIURL               string
	WhatsAppTimeout              time.Duration
	WhatsAppConfirmationTemplate string
	WhatsAppLanguage             string
	DefaultCountryCode           string

	EmailProvider  string
	SendgridAPIKey string
	SendgridHost   string
	EmailFrom      string
	EmailFromName  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	DispatchDelay  time.Duration
	EventsPageSize int

	GoogleCredentialsFile string
	BookingsSpreadsheetID string

	// guards the fields listed in settings()
	mu sync.RWMutex
}

// Credentials is a consistent copy of the settings an admin can change while
// the service runs. Senders take one per call instead of reading Config fields.
type Credentials struct {
	VerifyToken               string
	WhatsAppToken             string
	PhoneNumberID             string
	WhatsAppBusinessAccountID string
	SendgridAPIKey            string
	EmailFrom                 string
	EmailFromName             string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_PATH", "./nibog.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "nibog")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "nibog")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("VERIFY_TOKEN", "")
	v.SetDefault("WHATSAPP_TOKEN", "")
	v.SetDefault("PHONE_NUMBER_ID", "")
	v.SetDefault("WABA_ID", "")
	v.SetDefault("WHATSAPP_API_URL", "https://graph.facebook.com/v19.0")
	v.SetDefault("WHATSAPP_TIMEOUT", 10*time.Second)
	v.SetDefault("WHATSAPP_CONFIRMATION_TEMPLATE", "booking_confirmation")
	v.SetDefault("WHATSAPP_LANGUAGE", "en")
	v.SetDefault("DEFAULT_COUNTRY_CODE", "91")

	v.SetDefault("EMAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SENDGRID_HOST", "https://api.sendgrid.com")
	v.SetDefault("EMAIL_FROM", "noreply@nibog.in")
	v.SetDefault("EMAIL_FROM_NAME", "NIBOG")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 10*time.Minute)

	v.SetDefault("DISPATCH_DELAY", 500*time.Millisecond)
	v.SetDefault("EVENTS_PAGE_SIZE", 9)

	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	v.SetDefault("BOOKINGS_SPREADSHEET_ID", "")
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file loaded, using process environment")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:           v.GetString("PORT"),
		GinMode:        v.GetString("GIN_MODE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBPath:     v.GetString("DB_PATH"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),

		VerifyToken:                  v.GetString("VERIFY_TOKEN"),
		WhatsAppToken:                v.GetString("WHATSAPP_TOKEN"),
		PhoneNumberID:                v.GetString("PHONE_NUMBER_ID"),
		WhatsAppBusinessAccountID:    v.GetString("WABA_ID"),
		WhatsAppAPIURL:               v.GetString("WHATSAPP_API_URL"),
		WhatsAppTimeout:              v.GetDuration("WHATSAPP_TIMEOUT"),
		WhatsAppConfirmationTemplate: v.GetString("WHATSAPP_CONFIRMATION_TEMPLATE"),
		WhatsAppLanguage:             v.GetString("WHATSAPP_LANGUAGE"),
		DefaultCountryCode:           v.GetString("DEFAULT_COUNTRY_CODE"),

		EmailProvider:  v.GetString("EMAIL_PROVIDER"),
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		SendgridHost:   v.GetString("SENDGRID_HOST"),
		EmailFrom:      v.GetString("EMAIL_FROM"),
		EmailFromName:  v.GetString("EMAIL_FROM_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		DispatchDelay:  v.GetDuration("DISPATCH_DELAY"),
		EventsPageSize: v.GetInt("EVENTS_PAGE_SIZE"),

		GoogleCredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		BookingsSpreadsheetID: v.GetString("BOOKINGS_SPREADSHEET_ID"),
	}
}

// PostgresDSN builds the key/value DSN expected by the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// Credentials returns the current runtime-editable settings.
func (c *Config) Credentials() Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Credentials{
		VerifyToken:               c.VerifyToken,
		WhatsAppToken:             c.WhatsAppToken,
		PhoneNumberID:             c.PhoneNumberID,
		WhatsAppBusinessAccountID: c.WhatsAppBusinessAccountID,
		SendgridAPIKey:            c.SendgridAPIKey,
		EmailFrom:                 c.EmailFrom,
		EmailFromName:             c.EmailFromName,
	}
}

// SettingKeys lists the settings stored in the system_settings table, sorted.
func (c *Config) SettingKeys() []string {
	keys := make([]string, 0, len(c.settings()))
	for key := range c.settings() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Setting returns the current value of a runtime-editable setting.
func (c *Config) Setting(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	field, ok := c.settings()[key]
	if !ok {
		return "", false
	}
	return *field, true
}

// ApplySettings replaces the given settings atomically. It fails without
// changing anything when a key is not a runtime-editable setting.
func (c *Config) ApplySettings(values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := c.settings()
	for key := range values {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
	}
	for key, value := range values {
		*fields[key] = value
	}
	return nil
}

// settings maps setting names to their fields. Callers dereference the
// pointers only while holding mu.
func (c *Config) settings() map[string]*string {
	return map[string]*string{
		"VERIFY_TOKEN":     &c.VerifyToken,
		"WHATSAPP_TOKEN":   &c.WhatsAppToken,
		"PHONE_NUMBER_ID":  &c.PhoneNumberID,
		"WABA_ID":          &c.WhatsAppBusinessAccountID,
		"SENDGRID_API_KEY": &c.SendgridAPIKey,
		"EMAIL_FROM":       &c.EmailFrom,
		"EMAIL_FROM_NAME":  &c.EmailFromName,
	}
}
