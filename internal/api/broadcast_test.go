package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nibog/internal/dispatch"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkEmailSkipsInvalidRecipients(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/admin/notifications/email/bulk", gin.H{
		"subject": "Hi {{name}}",
		"body":    "Hello {{name}}, see you at {{venue}}",
		"recipients": []gin.H{
			{"name": "a", "email": "a@x.com"},
			{"name": "b", "email": "bad"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res dispatch.Result
	decode(t, w, &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.InvalidCount)
	assert.Equal(t, []string{"bad"}, res.Invalid)

	sent := env.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hi a", sent[0].Subject)
	assert.Equal(t, "Hello a, see you at ", sent[0].Text)

	var run models.DispatchRun
	decode(t, env.do(t, http.MethodGet, "/api/admin/notifications/runs/"+res.RunID, nil), &run)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Invalid)

	var logs []models.NotificationLog
	decode(t, env.do(t, http.MethodGet, "/api/admin/notifications/logs?channel=email", nil), &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, res.RunID, logs[0].RunID)
}

func TestBulkEmailFromUploadedCSV(t *testing.T) {
	env := newTestEnv(t)
	tmpl := models.EmailTemplate{Name: "promo", Subject: "Register {{Child}}", Body: "Dear {{name}}", IsActive: true}
	require.NoError(t, env.db.Create(&tmpl).Error)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("template_id", itoa(tmpl.ID)))
	fw, err := mw.CreateFormFile("file", "parents.csv")
	require.NoError(t, err)
	fw.Write([]byte("Name,Email,Child\nPriya,priya@example.com,Aarav\n,,\nRavi,ravi@example,Isha\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/notifications/email/bulk", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res dispatch.Result
	decode(t, w, &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []string{"ravi@example"}, res.Invalid)
	assert.Equal(t, "Register Aarav", env.mailer.Sent()[0].Subject)
}

func TestBulkEmailRefusesInactiveTemplate(t *testing.T) {
	env := newTestEnv(t)
	tmpl := models.EmailTemplate{Name: "old-promo", Subject: "s", Body: "b", IsActive: true}
	require.NoError(t, env.db.Create(&tmpl).Error)
	require.NoError(t, env.db.Model(&tmpl).Update("is_active", false).Error)

	w := env.do(t, http.MethodPost, "/api/admin/notifications/email/bulk", gin.H{
		"template_id": tmpl.ID,
		"recipients":  []gin.H{{"email": "a@x.com"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Empty(t, env.mailer.Sent())

	var runs int64
	require.NoError(t, env.db.Model(&models.DispatchRun{}).Count(&runs).Error)
	assert.Zero(t, runs)
}

func TestBulkRequestErrors(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		path string
		body gin.H
		code int
	}{
		{"email without content", "/api/admin/notifications/email/bulk", gin.H{"recipients": []gin.H{{"email": "a@x.com"}}}, http.StatusBadRequest},
		{"email without recipients", "/api/admin/notifications/email/bulk", gin.H{"subject": "s", "body": "b"}, http.StatusBadRequest},
		{"unknown template", "/api/admin/notifications/email/bulk", gin.H{"template_id": 77}, http.StatusNotFound},
		{"whatsapp without message", "/api/admin/notifications/whatsapp/bulk", gin.H{"recipients": []gin.H{{"phone": "9876543210"}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestBulkWhatsAppToEventAudience(t *testing.T) {
	env := newTestEnv(t)
	e := seedEvent(t, env.db, "Baby Olympics", "Hyderabad", day(6))
	for i, phone := range []string{"09876543210", "", "919000000000"} {
		b := models.Booking{BookingRef: "NIB-0000000" + itoa(uint(i)), EventID: e.ID, ParentName: "P", ChildName: "C", Phone: phone}
		require.NoError(t, env.db.Create(&b).Error)
	}

	var audience struct {
		Count int `json:"count"`
	}
	decode(t, env.do(t, http.MethodGet, "/api/admin/notifications/audience?event_id="+itoa(e.ID), nil), &audience)
	assert.Equal(t, 3, audience.Count)

	w := env.do(t, http.MethodPost, "/api/admin/notifications/whatsapp/bulk?async=true", gin.H{
		"template_name": "event_reminder",
		"params":        []string{"{{child_name}}", "{{event_title}}"},
		"event_id":      e.ID,
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var accepted struct {
		RunID string `json:"run_id"`
	}
	decode(t, w, &accepted)
	require.NotEmpty(t, accepted.RunID)

	require.Eventually(t, func() bool {
		var run models.DispatchRun
		err := env.db.First(&run, "id = ?", accepted.RunID).Error
		return err == nil && run.Status == models.RunStatusCompleted
	}, 2*time.Second, 20*time.Millisecond)

	// every booking is attempted, including the one without a phone
	assert.EqualValues(t, 3, atomic.LoadInt32(env.waCalls))
}
