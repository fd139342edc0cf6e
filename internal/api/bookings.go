package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nibog/internal/dispatch"
	"nibog/internal/export"
	"nibog/internal/listing"
	"nibog/internal/metrics"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmationSender sends booking confirmations.
type ConfirmationSender interface {
	BookingConfirmed(ctx context.Context, b *models.Booking)
	SendEmailConfirmation(ctx context.Context, b *models.Booking) (string, error)
	SendWhatsAppConfirmation(ctx context.Context, b *models.Booking) (string, error)
}

// BookingSheet mirrors the bookings export into a spreadsheet.
type BookingSheet interface {
	SyncBookings(ctx context.Context, t export.Table) (int, error)
}

type BookingHandler struct {
	DB       *gorm.DB
	Notifier ConfirmationSender
	Sheet    BookingSheet
	signal   contentSignal
	now      func() time.Time
}

func NewBookingHandler(db *gorm.DB, notifier ConfirmationSender, sheet BookingSheet, hub ContentNotifier) *BookingHandler {
	return &BookingHandler{
		DB:       db,
		Notifier: notifier,
		Sheet:    sheet,
		signal:   contentSignal{cache: nopCache, hub: hub},
		now:      time.Now,
	}
}

// NewBookingRef returns "NIB-" followed by eight upper-case hex characters.
func NewBookingRef() string {
	return "NIB-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

type CreateBookingRequest struct {
	EventID       uint   `json:"event_id" binding:"required"`
	ParentName    string `json:"parent_name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	ChildName     string `json:"child_name" binding:"required"`
	ChildDOB      string `json:"child_dob"`
	ChildGender   string `json:"child_gender"`
	SchoolName    string `json:"school_name"`
	GameIDs       []uint `json:"game_ids"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

// CreateBooking registers a child for games of a published, upcoming event.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.buildBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Event").Create(booking).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.IncBookingCreated()
	h.signal.changed(c.Request.Context(), "bookings")

	h.Notifier.BookingConfirmed(c.Request.Context(), booking)

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) buildBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	email := strings.TrimSpace(req.Email)
	if !dispatch.ValidEmail(email) {
		return nil, models.ErrInvalidEmail
	}
	if len(req.GameIDs) == 0 {
		return nil, models.ErrNoGamesSelected
	}

	var event models.Event
	if err := h.DB.WithContext(ctx).Preload("Games.GameTemplate").First(&event, req.EventID).Error; err != nil {
		return nil, notFound(err, models.ErrEventNotFound)
	}
	if event.Status != models.EventStatusPublished || !listing.IsUpcoming(event, h.now()) {
		return nil, models.ErrEventNotBookable
	}

	booking := &models.Booking{
		BookingRef:    NewBookingRef(),
		EventID:       event.ID,
		Event:         &event,
		ParentName:    strings.TrimSpace(req.ParentName),
		Email:         email,
		Phone:         strings.TrimSpace(req.Phone),
		ChildName:     strings.TrimSpace(req.ChildName),
		ChildGender:   req.ChildGender,
		SchoolName:    req.SchoolName,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		Status:        models.BookingStatusPending,
		Notes:         req.Notes,
	}
	if req.ChildDOB != "" {
		dob, err := time.Parse(dateLayout, req.ChildDOB)
		if err != nil {
			return nil, validationError("invalid child_dob, expected YYYY-MM-DD")
		}
		booking.ChildDOB = &dob
	}

	slots := map[uint]models.EventGame{}
	for _, g := range event.Games {
		slots[g.ID] = g
	}
	seen := map[uint]bool{}
	for _, id := range req.GameIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		slot, ok := slots[id]
		if !ok {
			return nil, models.ErrGameNotInEvent
		}
		name := ""
		if slot.GameTemplate != nil {
			name = slot.GameTemplate.Name
		}
		booking.Games = append(booking.Games, models.BookingGame{
			EventGameID: slot.ID,
			GameName:    name,
			Price:       slot.Price,
		})
		booking.TotalAmount += slot.Price
	}
	return booking, nil
}

// --- Admin ---

func (h *BookingHandler) filtered(c *gin.Context) *gorm.DB {
	query := h.DB.WithContext(c.Request.Context()).Model(&models.Booking{})
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	}
	if s := c.Query("payment_status"); s != "" {
		query = query.Where("payment_status = ?", s)
	}
	if id := queryInt(c, "event_id", 0); id > 0 {
		query = query.Where("event_id = ?", id)
	}
	if s := strings.TrimSpace(c.Query("search")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(booking_ref) LIKE ? OR LOWER(parent_name) LIKE ? OR LOWER(child_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like, like)
	}
	return query
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := h.filtered(c).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}

	var bookings []models.Booking
	err := h.filtered(c).
		Preload("Event").Preload("Games").
		Order("created_at desc, id desc").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *BookingHandler) load(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := h.DB.WithContext(ctx).Preload("Event").Preload("Games").First(&b, id).Error; err != nil {
		return nil, notFound(err, models.ErrBookingNotFound)
	}
	return &b, nil
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b, err := h.load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validStatus(req.Status, models.BookingStatuses) {
		respondError(c, models.ErrInvalidStatus)
		return
	}
	h.updateColumn(c, "status", req.Status)
}

func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validStatus(req.PaymentStatus, models.PaymentStatuses) {
		respondError(c, models.ErrInvalidStatus)
		return
	}
	h.updateColumn(c, "payment_status", req.PaymentStatus)
}

func (h *BookingHandler) updateColumn(c *gin.Context, column, value string) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Model(&models.Booking{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, models.ErrBookingNotFound)
		return
	}
	h.signal.changed(c.Request.Context(), "bookings")

	b, err := h.load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("booking_id = ?", id).Delete(&models.BookingGame{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Booking{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrBookingNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "bookings")
	c.JSON(http.StatusOK, gin.H{"status": "Booking deleted"})
}

func (h *BookingHandler) exportRows(c *gin.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := h.filtered(c).Preload("Event").Preload("Games").Order("created_at desc, id desc").Find(&bookings).Error
	return bookings, err
}

// ExportBookings downloads the filtered bookings as csv, xlsx or pdf.
func (h *BookingHandler) ExportBookings(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	bookings, err := h.exportRows(c)
	if err != nil {
		respondError(c, err)
		return
	}
	writeExport(c, format, "bookings", export.BookingTable(bookings), h.now())
}

func (h *BookingHandler) SyncSheet(c *gin.Context) {
	if h.Sheet == nil {
		respondError(c, fmt.Errorf("google sheets: %w", models.ErrNotConfigured))
		return
	}
	bookings, err := h.exportRows(c)
	if err != nil {
		respondError(c, err)
		return
	}
	n, err := h.Sheet.SyncBookings(c.Request.Context(), export.BookingTable(bookings))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Bookings synced", "rows": n})
}

func (h *BookingHandler) ResendWhatsApp(c *gin.Context) {
	h.resend(c, h.Notifier.SendWhatsAppConfirmation)
}

func (h *BookingHandler) ResendEmail(c *gin.Context) {
	h.resend(c, h.Notifier.SendEmailConfirmation)
}

func (h *BookingHandler) resend(c *gin.Context, send func(context.Context, *models.Booking) (string, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	b, err := h.load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	msgID, err := send(c.Request.Context(), b)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send confirmation: " + err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Confirmation sent", "message_id": msgID})
}

func writeExport(c *gin.Context, format export.Format, base string, t export.Table, now time.Time) {
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", "attachment; filename="+format.Filename(base, now))
	c.Status(http.StatusOK)
	if err := export.Write(c.Writer, format, t); err != nil {
		c.Error(err)
	}
}
