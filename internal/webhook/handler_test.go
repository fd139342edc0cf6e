package webhook

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nibog/internal/config"
	"nibog/internal/database"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	h := NewHandler(&config.Config{VerifyToken: "tok"}, db)
	r := gin.New()
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.HandleMessage)
	return r, h
}

func TestVerifyWebhook(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		query string
		code  int
		body  string
	}{
		{"hub.mode=subscribe&hub.verify_token=tok&hub.challenge=42", http.StatusOK, "42"},
		{"hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", http.StatusForbidden, ""},
		{"", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil))
		assert.Equal(t, tt.code, w.Code, tt.query)
		assert.Equal(t, tt.body, w.Body.String())
	}
}

func TestHandleMessageStoresInboundAndAppliesStatus(t *testing.T) {
	r, h := newRouter(t)
	out := models.OutboundLog(models.ChannelWhatsApp, "919876543210", "booking_confirmation", "wamid.OUT", "", nil)
	require.NoError(t, h.DB.Create(&out).Error)

	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
		"messages":[{"from":"919876543210","id":"wamid.IN","type":"text","text":{"body":"What time does it start?"}}],
		"statuses":[{"id":"wamid.OUT","status":"read"},{"id":"wamid.OUT","status":"sent"}]}}]}]}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var inbound models.NotificationLog
	require.NoError(t, h.DB.Where("direction = ?", models.DirectionInbound).First(&inbound).Error)
	assert.Equal(t, "What time does it start?", inbound.Content)
	assert.Equal(t, models.LogStatusReceived, inbound.Status)

	var updated models.NotificationLog
	require.NoError(t, h.DB.First(&updated, out.ID).Error)
	assert.Equal(t, models.LogStatusRead, updated.Status)
}

func TestStatusesOnlyMoveForward(t *testing.T) {
	r, h := newRouter(t)

	post := func(id, status string) {
		body := `{"entry":[{"changes":[{"value":{"statuses":[{"id":"` + id + `","status":"` + status + `"}]}}]}]}`
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)
	}
	statusOf := func(id uint) string {
		var l models.NotificationLog
		require.NoError(t, h.DB.First(&l, id).Error)
		return l.Status
	}

	a := models.OutboundLog(models.ChannelWhatsApp, "919876543210", "reminder", "wamid.A", "", nil)
	b := models.OutboundLog(models.ChannelWhatsApp, "919876543211", "reminder", "wamid.B", "", nil)
	require.NoError(t, h.DB.Create(&a).Error)
	require.NoError(t, h.DB.Create(&b).Error)

	tests := []struct {
		id     uint
		wamid  string
		status string
		want   string
	}{
		{a.ID, "wamid.A", "delivered", models.LogStatusDelivered},
		{a.ID, "wamid.A", "read", models.LogStatusRead},
		{a.ID, "wamid.A", "delivered", models.LogStatusRead},
		{a.ID, "wamid.A", "sent", models.LogStatusRead},
		{a.ID, "wamid.A", "failed", models.LogStatusFailed},
		{a.ID, "wamid.A", "read", models.LogStatusFailed},
		{b.ID, "wamid.B", "read", models.LogStatusRead},
		{b.ID, "wamid.B", "delivered", models.LogStatusRead},
	}
	for _, tt := range tests {
		post(tt.wamid, tt.status)
		assert.Equal(t, tt.want, statusOf(tt.id), "%s after %s", tt.wamid, tt.status)
	}
}

func TestMessageSummary(t *testing.T) {
	assert.Equal(t, "[image]:m1:cap", Message{Type: "image", Image: &Media{ID: "m1", Caption: "cap"}}.Summary())
	assert.Equal(t, "[audio]", Message{Type: "audio"}.Summary())
	assert.Equal(t, "[sticker]", Message{Type: "sticker"}.Summary())
}
