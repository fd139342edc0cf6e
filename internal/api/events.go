package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"nibog/internal/cache"
	"nibog/internal/listing"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type EventHandler struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PageSize int
	signal   contentSignal
	now      func() time.Time
}

func NewEventHandler(db *gorm.DB, c cache.Cache, hub ContentNotifier, pageSize int) *EventHandler {
	return &EventHandler{
		DB:       db,
		Cache:    c,
		PageSize: pageSize,
		signal:   contentSignal{cache: c, hub: hub},
		now:      time.Now,
	}
}

func (h *EventHandler) published(ctx context.Context) ([]models.Event, error) {
	return cache.Fetch(ctx, h.Cache, cache.KeyEvents, func() ([]models.Event, error) {
		var events []models.Event
		err := h.DB.WithContext(ctx).
			Preload("Games.GameTemplate").
			Where("status = ?", models.EventStatusPublished).
			Find(&events).Error
		return events, err
	})
}

func parseQuery(c *gin.Context) (listing.Query, error) {
	q := listing.Query{City: c.Query("city")}
	for key, dst := range map[string]**int{"min_age": &q.MinAge, "max_age": &q.MaxAge} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return q, validationError("invalid " + key)
		}
		*dst = &v
	}
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return q, validationError("invalid date, expected YYYY-MM-DD")
		}
		q.Date = &d
	}
	return q, nil
}

// ListEvents serves the public listing: filtered, upcoming first, paged by "load more" count.
func (h *EventHandler) ListEvents(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.published(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	arranged := listing.Arrange(events, q, h.now())
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	visible, hasMore := listing.Page(arranged, h.PageSize, page)
	if visible == nil {
		visible = []models.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events":   visible,
		"total":    len(arranged),
		"page":     page,
		"has_more": hasMore,
	})
}

func (h *EventHandler) ListCities(c *gin.Context) {
	events, err := h.published(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing.Cities(events))
}

func (h *EventHandler) GetPublicEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var event models.Event
	err := h.DB.WithContext(c.Request.Context()).
		Preload("Games.GameTemplate").
		Where("status <> ?", models.EventStatusDraft).
		First(&event, id).Error
	if err != nil {
		respondError(c, notFound(err, models.ErrEventNotFound))
		return
	}
	c.JSON(http.StatusOK, event)
}

// --- Admin ---

type EventGameRequest struct {
	ID              uint    `json:"id"`
	GameTemplateID  uint    `json:"game_template_id" binding:"required"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	Price           float64 `json:"price" binding:"gte=0"`
	MaxParticipants int     `json:"max_participants" binding:"gte=0"`
}

type EventRequest struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description"`
	City         string             `json:"city" binding:"required"`
	Venue        string             `json:"venue"`
	Address      string             `json:"address"`
	EventDate    string             `json:"event_date" binding:"required"`
	StartTime    string             `json:"start_time"`
	EndTime      string             `json:"end_time"`
	MinAgeMonths int                `json:"min_age_months" binding:"gte=0"`
	MaxAgeMonths int                `json:"max_age_months" binding:"gte=0"`
	ImageURL     string             `json:"image_url"`
	Status       string             `json:"status"`
	Games        []EventGameRequest `json:"games"`
}

func (r EventRequest) apply(e *models.Event) error {
	date, err := time.Parse(dateLayout, r.EventDate)
	if err != nil {
		return validationError("invalid event_date, expected YYYY-MM-DD")
	}
	status := r.Status
	if status == "" {
		status = models.EventStatusDraft
	}
	if !validStatus(status, []string{models.EventStatusDraft, models.EventStatusPublished, models.EventStatusCancelled}) {
		return models.ErrInvalidStatus
	}
	if r.MaxAgeMonths > 0 && r.MinAgeMonths > r.MaxAgeMonths {
		return validationError("min_age_months cannot exceed max_age_months")
	}

	e.Title = r.Title
	e.Description = r.Description
	e.City = r.City
	e.Venue = r.Venue
	e.Address = r.Address
	e.EventDate = date
	e.StartTime = r.StartTime
	e.EndTime = r.EndTime
	e.MinAgeMonths = r.MinAgeMonths
	e.MaxAgeMonths = r.MaxAgeMonths
	e.ImageURL = r.ImageURL
	e.Status = status
	return nil
}

func (h *EventHandler) AdminListEvents(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Preload("Games.GameTemplate").Order("event_date desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) AdminGetEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var event models.Event
	if err := h.DB.WithContext(c.Request.Context()).Preload("Games.GameTemplate").First(&event, id).Error; err != nil {
		respondError(c, notFound(err, models.ErrEventNotFound))
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var event models.Event
	if err := req.apply(&event); err != nil {
		respondError(c, err)
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Games").Create(&event).Error; err != nil {
			return err
		}
		return syncEventGames(tx, event.ID, req.Games)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.signal.changed(c.Request.Context(), "events", cache.KeyEvents)
	h.reload(c, event.ID, http.StatusCreated)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, id).Error; err != nil {
			return notFound(err, models.ErrEventNotFound)
		}
		if err := req.apply(&event); err != nil {
			return err
		}
		if err := tx.Omit("Games").Save(&event).Error; err != nil {
			return err
		}
		return syncEventGames(tx, event.ID, req.Games)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.signal.changed(c.Request.Context(), "events", cache.KeyEvents)
	h.reload(c, id, http.StatusOK)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var bookings int64
		if err := tx.Model(&models.Booking{}).Where("event_id = ?", id).Count(&bookings).Error; err != nil {
			return err
		}
		if bookings > 0 {
			return models.ErrEventHasBookings
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventGame{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.signal.changed(c.Request.Context(), "events", cache.KeyEvents)
	c.JSON(http.StatusOK, gin.H{"status": "Event deleted"})
}

func (h *EventHandler) reload(c *gin.Context, id uint, status int) {
	var event models.Event
	if err := h.DB.WithContext(c.Request.Context()).Preload("Games.GameTemplate").First(&event, id).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, event)
}

// syncEventGames makes the event's slots match req: slots with a known id are
// updated, new ones created and the rest removed.
func syncEventGames(tx *gorm.DB, eventID uint, req []EventGameRequest) error {
	var existing []models.EventGame
	if err := tx.Where("event_id = ?", eventID).Find(&existing).Error; err != nil {
		return err
	}
	keep := map[uint]bool{}

	for _, g := range req {
		var tmpl models.GameTemplate
		if err := tx.First(&tmpl, g.GameTemplateID).Error; err != nil {
			return notFound(err, models.ErrGameNotFound)
		}

		slot := models.EventGame{
			ID:              g.ID,
			EventID:         eventID,
			GameTemplateID:  g.GameTemplateID,
			StartTime:       g.StartTime,
			EndTime:         g.EndTime,
			Price:           g.Price,
			MaxParticipants: g.MaxParticipants,
		}
		if slot.ID != 0 && !contains(existing, slot.ID) {
			slot.ID = 0
		}
		if err := tx.Omit("GameTemplate").Save(&slot).Error; err != nil {
			return err
		}
		keep[slot.ID] = true
	}

	for _, e := range existing {
		if !keep[e.ID] {
			if err := tx.Delete(&models.EventGame{}, e.ID).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func contains(slots []models.EventGame, id uint) bool {
	for _, s := range slots {
		if s.ID == id {
			return true
		}
	}
	return false
}

// notFound replaces gorm's not-found error with the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
