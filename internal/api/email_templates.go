package api

import (
	"net/http"
	"strings"

	"nibog/internal/dispatch"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EmailTemplateHandler struct {
	DB *gorm.DB
}

func NewEmailTemplateHandler(db *gorm.DB) *EmailTemplateHandler {
	return &EmailTemplateHandler{DB: db}
}

type EmailTemplateRequest struct {
	Name     string `json:"name" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body" binding:"required"`
	Type     string `json:"type"`
	IsActive *bool  `json:"is_active"`
}

func (r EmailTemplateRequest) apply(t *models.EmailTemplate) {
	t.Name = strings.TrimSpace(r.Name)
	t.Subject = r.Subject
	t.Body = r.Body
	t.Type = r.Type
	if r.IsActive != nil {
		t.IsActive = *r.IsActive
	}
}

func (h *EmailTemplateHandler) ListTemplates(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Order("name")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	var templates []models.EmailTemplate
	if err := query.Find(&templates).Error; err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []models.EmailTemplate{}
	}
	c.JSON(http.StatusOK, templates)
}

func (h *EmailTemplateHandler) load(c *gin.Context) (*models.EmailTemplate, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	var tmpl models.EmailTemplate
	if err := h.DB.WithContext(c.Request.Context()).First(&tmpl, id).Error; err != nil {
		respondError(c, notFound(err, models.ErrTemplateNotFound))
		return nil, false
	}
	return &tmpl, true
}

func (h *EmailTemplateHandler) GetTemplate(c *gin.Context) {
	if tmpl, ok := h.load(c); ok {
		c.JSON(http.StatusOK, tmpl)
	}
}

func (h *EmailTemplateHandler) CreateTemplate(c *gin.Context) {
	var req EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tmpl := models.EmailTemplate{IsActive: true}
	req.apply(&tmpl)

	db := h.DB.WithContext(c.Request.Context())
	var taken int64
	db.Model(&models.EmailTemplate{}).Where("name = ?", tmpl.Name).Count(&taken)
	if taken > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "a template with this name already exists"})
		return
	}
	if err := createWithFlag(db, &tmpl, "is_active", tmpl.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *EmailTemplateHandler) UpdateTemplate(c *gin.Context) {
	tmpl, ok := h.load(c)
	if !ok {
		return
	}
	var req EmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(tmpl)
	if err := h.DB.WithContext(c.Request.Context()).Save(tmpl).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *EmailTemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.EmailTemplate{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, models.ErrTemplateNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

// sampleRecipient fills previews when the admin supplies no data.
var sampleRecipient = dispatch.Recipient{
	"name":         "Priya Sharma",
	"parent_name":  "Priya Sharma",
	"child_name":   "Aarav",
	"email":        "priya@example.com",
	"phone":        "919876543210",
	"booking_ref":  "NIB-1A2B3C4D",
	"event":        "Baby Olympics Hyderabad",
	"event_title":  "Baby Olympics Hyderabad",
	"event_date":   "07 Nov 2026",
	"venue":        "Gachibowli Stadium, Hyderabad",
	"city":         "Hyderabad",
	"games":        "Baby Crawling, Running Race",
	"total_amount": "₹1798.00",
}

type previewRequest struct {
	Data map[string]string `json:"data"`
}

// PreviewTemplate renders subject and body against the given or sample data.
func (h *EmailTemplateHandler) PreviewTemplate(c *gin.Context) {
	tmpl, ok := h.load(c)
	if !ok {
		return
	}
	var req previewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	r := sampleRecipient
	if len(req.Data) > 0 {
		r = dispatch.NewRecipient(req.Data)
	}
	c.JSON(http.StatusOK, gin.H{
		"subject": dispatch.Render(tmpl.Subject, r),
		"body":    dispatch.Render(tmpl.Body, r),
	})
}
