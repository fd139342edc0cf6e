package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"nibog/internal/cache"
	"nibog/internal/content"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContentHandler serves the website's editable content: FAQs, policy pages,
// footer and general settings.
type ContentHandler struct {
	DB     *gorm.DB
	Cache  cache.Cache
	signal contentSignal
}

func NewContentHandler(db *gorm.DB, c cache.Cache, hub ContentNotifier) *ContentHandler {
	return &ContentHandler{DB: db, Cache: c, signal: contentSignal{cache: c, hub: hub}}
}

// --- FAQs ---

func (h *ContentHandler) ListFAQs(c *gin.Context) {
	ctx := c.Request.Context()
	faqs, err := cache.Fetch(ctx, h.Cache, cache.KeyFAQs, func() ([]models.FAQ, error) {
		var faqs []models.FAQ
		err := h.DB.WithContext(ctx).
			Where("status = ?", models.FAQStatusActive).
			Order("display_order, id").
			Find(&faqs).Error
		if faqs == nil {
			faqs = []models.FAQ{}
		}
		return faqs, err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, faqs)
}

func (h *ContentHandler) AdminListFAQs(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Order("display_order, id")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	var faqs []models.FAQ
	if err := query.Find(&faqs).Error; err != nil {
		respondError(c, err)
		return
	}
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	c.JSON(http.StatusOK, faqs)
}

type FAQRequest struct {
	Question     string `json:"question" binding:"required"`
	Answer       string `json:"answer" binding:"required"`
	Category     string `json:"category"`
	DisplayOrder int    `json:"display_order"`
	Status       string `json:"status"`
}

func (r FAQRequest) apply(f *models.FAQ) error {
	status := r.Status
	if status == "" {
		status = models.FAQStatusActive
	}
	if !validStatus(status, []string{models.FAQStatusActive, models.FAQStatusInactive}) {
		return models.ErrInvalidStatus
	}
	f.Question = strings.TrimSpace(r.Question)
	f.Answer = r.Answer
	f.Category = r.Category
	f.DisplayOrder = r.DisplayOrder
	f.Status = status
	return nil
}

func (h *ContentHandler) CreateFAQ(c *gin.Context) {
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var faq models.FAQ
	if err := req.apply(&faq); err != nil {
		respondError(c, err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&faq).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "faqs", cache.KeyFAQs)
	c.JSON(http.StatusCreated, faq)
}

func (h *ContentHandler) UpdateFAQ(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var faq models.FAQ
	if err := db.First(&faq, id).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := req.apply(&faq); err != nil {
		respondError(c, err)
		return
	}
	if err := db.Save(&faq).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "faqs", cache.KeyFAQs)
	c.JSON(http.StatusOK, faq)
}

func (h *ContentHandler) DeleteFAQ(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.FAQ{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "FAQ not found"})
		return
	}
	h.signal.changed(c.Request.Context(), "faqs", cache.KeyFAQs)
	c.JSON(http.StatusOK, gin.H{"status": "FAQ deleted"})
}

// --- Policy pages ---

// PageView is a policy page with its markdown rendered to HTML.
type PageView struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	HTML      string    `json:"html"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *ContentHandler) page(ctx context.Context, slug string) (PageView, error) {
	if _, ok := models.PolicySlugs[slug]; !ok {
		return PageView{}, models.ErrPageNotFound
	}
	return cache.Fetch(ctx, h.Cache, cache.KeyPage(slug), func() (PageView, error) {
		var page models.PolicyPage
		if err := h.DB.WithContext(ctx).First(&page, "slug = ?", slug).Error; err != nil {
			return PageView{}, notFound(err, models.ErrPageNotFound)
		}
		html, err := content.RenderMarkdown(page.Content)
		if err != nil {
			return PageView{}, err
		}
		return PageView{
			Slug:      page.Slug,
			Title:     page.Title,
			Content:   page.Content,
			HTML:      html,
			UpdatedAt: page.UpdatedAt,
		}, nil
	})
}

func (h *ContentHandler) GetPage(c *gin.Context) {
	view, err := h.page(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type PageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *ContentHandler) UpdatePage(c *gin.Context) {
	slug := c.Param("slug")
	title, ok := models.PolicySlugs[slug]
	if !ok {
		respondError(c, models.ErrPageNotFound)
		return
	}
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Title) != "" {
		title = req.Title
	}

	page := models.PolicyPage{Slug: slug, Title: title, Content: req.Content}
	if err := h.DB.WithContext(c.Request.Context()).Save(&page).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "pages", cache.KeyPage(slug))

	view, err := h.page(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Footer and general settings ---

func (h *ContentHandler) GetFooter(c *gin.Context) {
	getSingleton[models.FooterSetting](c, h, cache.KeyFooter)
}

func (h *ContentHandler) UpdateFooter(c *gin.Context) {
	putSingleton[models.FooterSetting](c, h, "footer", cache.KeyFooter, func(s *models.FooterSetting) { s.ID = 1 })
}

func (h *ContentHandler) GetGeneral(c *gin.Context) {
	getSingleton[models.GeneralSetting](c, h, cache.KeyGeneral)
}

func (h *ContentHandler) UpdateGeneral(c *gin.Context) {
	putSingleton[models.GeneralSetting](c, h, "general", cache.KeyGeneral, func(s *models.GeneralSetting) { s.ID = 1 })
}

func getSingleton[T any](c *gin.Context, h *ContentHandler, key string) {
	ctx := c.Request.Context()
	row, err := cache.Fetch(ctx, h.Cache, key, func() (T, error) {
		var row T
		err := h.DB.WithContext(ctx).First(&row, 1).Error
		return row, err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// putSingleton replaces the single settings row with the request body.
func putSingleton[T any](c *gin.Context, h *ContentHandler, topic, key string, pin func(*T)) {
	var row T
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pin(&row)
	if err := h.DB.WithContext(c.Request.Context()).Save(&row).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), topic, key)
	c.JSON(http.StatusOK, row)
}
