package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"nibog/internal/cache"
	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/dispatch"
	"nibog/internal/email"
	"nibog/internal/models"
	"nibog/internal/notify"
	"nibog/internal/whatsapp"
	"nibog/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	cfg     *config.Config
	mailer  *email.ConsoleSender
	waCalls *int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, database.Seed(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"messages":[{"id":"wamid.%d"}]}`, n)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		RequestTimeout:               5 * time.Second,
		WhatsAppAPIURL:               srv.URL,
		WhatsAppToken:                "token-123456",
		PhoneNumberID:                "PN1",
		WhatsAppTimeout:              time.Second,
		WhatsAppConfirmationTemplate: "booking_confirmation",
		WhatsAppLanguage:             "en",
		DefaultCountryCode:           "91",
		EmailFrom:                    "noreply@nibog.in",
		EventsPageSize:               2,
	}
	mailer := email.NewConsoleSender(cfg)
	wa := whatsapp.NewClient(cfg)
	hub := ws.NewHub()
	svc := dispatch.NewService(db, 0, hub)
	// runs before the database is closed
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Shutdown(ctx)
	})

	router := NewRouter(Deps{
		Config:   cfg,
		DB:       db,
		Cache:    cache.Nop{},
		Hub:      hub,
		WhatsApp: wa,
		Mailer:   mailer,
		Notifier: notify.NewNotifier(db, cfg, mailer, wa),
		Dispatch: svc,
	})
	return &testEnv{router: router, db: db, cfg: cfg, mailer: mailer, waCalls: &calls}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// day returns a date offset from today's local calendar date, stored the way
// the API stores event dates: as UTC midnight.
func day(offset int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// seedEvent stores a published event with one game slot priced 899.
func seedEvent(t *testing.T, db *gorm.DB, title, city string, date time.Time) models.Event {
	t.Helper()
	game := models.GameTemplate{Name: "Baby Crawling " + title, MinAgeMonths: 6, MaxAgeMonths: 18, IsActive: true}
	require.NoError(t, db.Create(&game).Error)

	event := models.Event{
		Title:        title,
		City:         city,
		Venue:        "Indoor Stadium",
		EventDate:    date,
		MinAgeMonths: 6,
		MaxAgeMonths: 36,
		Status:       models.EventStatusPublished,
		Games:        []models.EventGame{{GameTemplateID: game.ID, Price: 899}},
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}
