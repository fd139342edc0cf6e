package api

import (
	"net/http"
	"time"

	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db, now: time.Now}
}

type Stats struct {
	UpcomingEvents    int64            `json:"upcoming_events"`
	TotalBookings     int64            `json:"total_bookings"`
	BookingsByStatus  map[string]int64 `json:"bookings_by_status"`
	PaidRevenue       float64          `json:"paid_revenue"`
	NotificationsSent int64            `json:"notifications_sent"`
	NotificationsFail int64            `json:"notifications_failed"`
	OpenEnquiries     int64            `json:"open_enquiries"`
	RecentBookings    []models.Booking `json:"recent_bookings"`
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())
	now := h.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := Stats{BookingsByStatus: map[string]int64{}}

	err := db.Model(&models.Event{}).
		Where("status = ? AND event_date >= ?", models.EventStatusPublished, today).
		Count(&stats.UpcomingEvents).Error
	if err != nil {
		respondError(c, err)
		return
	}

	var groups []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Booking{}).Select("status, COUNT(*) AS count").Group("status").Scan(&groups).Error; err != nil {
		respondError(c, err)
		return
	}
	for _, g := range groups {
		stats.BookingsByStatus[g.Status] = g.Count
		stats.TotalBookings += g.Count
	}

	err = db.Model(&models.Booking{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.PaidRevenue).Error
	if err != nil {
		respondError(c, err)
		return
	}

	outbound := db.Model(&models.NotificationLog{}).Where("direction = ?", models.DirectionOutbound).Session(&gorm.Session{})
	if err := outbound.Where("status <> ?", models.LogStatusFailed).Count(&stats.NotificationsSent).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := outbound.Where("status = ?", models.LogStatusFailed).Count(&stats.NotificationsFail).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := db.Model(&models.ContactEnquiry{}).Where("status = ?", models.EnquiryStatusNew).Count(&stats.OpenEnquiries).Error; err != nil {
		respondError(c, err)
		return
	}

	if err := db.Preload("Event").Order("created_at desc, id desc").Limit(5).Find(&stats.RecentBookings).Error; err != nil {
		respondError(c, err)
		return
	}
	if stats.RecentBookings == nil {
		stats.RecentBookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, stats)
}
