package api

import (
	"net/http"

	"nibog/internal/cache"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GameHandler struct {
	DB     *gorm.DB
	signal contentSignal
}

func NewGameHandler(db *gorm.DB, c cache.Cache, hub ContentNotifier) *GameHandler {
	return &GameHandler{DB: db, signal: contentSignal{cache: c, hub: hub}}
}

type GameRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	MinAgeMonths    int    `json:"min_age_months" binding:"gte=0"`
	MaxAgeMonths    int    `json:"max_age_months" binding:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" binding:"gte=0"`
	Categories      string `json:"categories"`
	ImageURL        string `json:"image_url"`
	IsActive        *bool  `json:"is_active"`
}

func (r GameRequest) apply(g *models.GameTemplate) error {
	if r.MaxAgeMonths > 0 && r.MinAgeMonths > r.MaxAgeMonths {
		return validationError("min_age_months cannot exceed max_age_months")
	}
	g.Name = r.Name
	g.Description = r.Description
	g.MinAgeMonths = r.MinAgeMonths
	g.MaxAgeMonths = r.MaxAgeMonths
	g.DurationMinutes = r.DurationMinutes
	g.Categories = r.Categories
	g.ImageURL = r.ImageURL
	if r.IsActive != nil {
		g.IsActive = *r.IsActive
	}
	return nil
}

func (h *GameHandler) ListGames(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Order("name")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	var games []models.GameTemplate
	if err := query.Find(&games).Error; err != nil {
		respondError(c, err)
		return
	}
	if games == nil {
		games = []models.GameTemplate{}
	}
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var game models.GameTemplate
	if err := h.DB.WithContext(c.Request.Context()).First(&game, id).Error; err != nil {
		respondError(c, notFound(err, models.ErrGameNotFound))
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	game := models.GameTemplate{IsActive: true}
	if err := req.apply(&game); err != nil {
		respondError(c, err)
		return
	}
	if err := createWithFlag(h.DB.WithContext(c.Request.Context()), &game, "is_active", game.IsActive); err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "games", cache.KeyEvents)
	c.JSON(http.StatusCreated, game)
}

func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var game models.GameTemplate
	if err := h.DB.WithContext(c.Request.Context()).First(&game, id).Error; err != nil {
		respondError(c, notFound(err, models.ErrGameNotFound))
		return
	}
	if err := req.apply(&game); err != nil {
		respondError(c, err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Save(&game).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "games", cache.KeyEvents)
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var slots int64
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.EventGame{}).Where("game_template_id = ?", id).Count(&slots).Error; err != nil {
		respondError(c, err)
		return
	}
	if slots > 0 {
		respondError(c, models.ErrGameInUse)
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Delete(&models.GameTemplate{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, models.ErrGameNotFound)
		return
	}
	h.signal.changed(c.Request.Context(), "games", cache.KeyEvents)
	c.JSON(http.StatusOK, gin.H{"status": "Game deleted"})
}
