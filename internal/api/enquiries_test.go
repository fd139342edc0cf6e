package api

import (
	"net/http"
	"strings"
	"testing"

	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnquiryLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/contact", CreateEnquiryRequest{Name: "Ravi", Email: "ravi@nowhere", Message: "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPost, "/api/contact", CreateEnquiryRequest{Name: "Ravi", Email: "ravi@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/contact", CreateEnquiryRequest{Name: "Ravi", Email: "ravi@example.com", Message: "Is parking available?"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)

	var open []models.ContactEnquiry
	decode(t, env.do(t, http.MethodGet, "/api/admin/enquiries?status=new", nil), &open)
	require.Len(t, open, 1)

	w = env.do(t, http.MethodPatch, "/api/admin/enquiries/"+itoa(created.ID)+"/status", gin.H{"status": "spam"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPatch, "/api/admin/enquiries/"+itoa(created.ID)+"/status", gin.H{"status": models.EnquiryStatusReplied})
	require.Equal(t, http.StatusOK, w.Code)

	decode(t, env.do(t, http.MethodGet, "/api/admin/enquiries?status=new", nil), &open)
	assert.Empty(t, open)

	w = env.do(t, http.MethodGet, "/api/admin/enquiries/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Is parking available?")
	assert.True(t, strings.HasPrefix(w.Body.String(), "ID,Name,Email"))

	w = env.do(t, http.MethodDelete, "/api/admin/enquiries/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/api/admin/enquiries/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	e := seedEvent(t, env.db, "Baby Olympics", "Hyderabad", day(6))
	seedEvent(t, env.db, "Old", "Hyderabad", day(-6))

	require.NoError(t, env.db.Create(&models.Booking{BookingRef: "NIB-D0000001", EventID: e.ID, ParentName: "A", ChildName: "a", TotalAmount: 899, PaymentStatus: models.PaymentStatusPaid, Status: models.BookingStatusConfirmed}).Error)
	require.NoError(t, env.db.Create(&models.Booking{BookingRef: "NIB-D0000002", EventID: e.ID, ParentName: "B", ChildName: "b", TotalAmount: 500}).Error)
	failed := models.OutboundLog(models.ChannelEmail, "x@y.com", "s", "", "", assert.AnError)
	require.NoError(t, env.db.Create(&failed).Error)
	require.NoError(t, env.db.Create(&models.ContactEnquiry{Name: "n", Email: "e@x.com", Message: "m"}).Error)

	var stats Stats
	decode(t, env.do(t, http.MethodGet, "/api/admin/dashboard", nil), &stats)
	assert.EqualValues(t, 1, stats.UpcomingEvents)
	assert.EqualValues(t, 2, stats.TotalBookings)
	assert.EqualValues(t, 1, stats.BookingsByStatus[models.BookingStatusPending])
	assert.Equal(t, 899.0, stats.PaidRevenue)
	assert.EqualValues(t, 1, stats.NotificationsFail)
	assert.EqualValues(t, 1, stats.OpenEnquiries)
	assert.Len(t, stats.RecentBookings, 2)
}
