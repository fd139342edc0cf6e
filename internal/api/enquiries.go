package api

import (
	"net/http"
	"strings"
	"time"

	"nibog/internal/dispatch"
	"nibog/internal/export"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EnquiryHandler struct {
	DB     *gorm.DB
	signal contentSignal
	now    func() time.Time
}

func NewEnquiryHandler(db *gorm.DB, hub ContentNotifier) *EnquiryHandler {
	return &EnquiryHandler{DB: db, signal: contentSignal{cache: nopCache, hub: hub}, now: time.Now}
}

type CreateEnquiryRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// CreateEnquiry stores a message from the public contact form.
func (h *EnquiryHandler) CreateEnquiry(c *gin.Context) {
	var req CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr := strings.TrimSpace(req.Email)
	if !dispatch.ValidEmail(addr) {
		respondError(c, models.ErrInvalidEmail)
		return
	}

	enquiry := models.ContactEnquiry{
		Name:    strings.TrimSpace(req.Name),
		Email:   addr,
		Phone:   strings.TrimSpace(req.Phone),
		Subject: req.Subject,
		Message: req.Message,
		Status:  models.EnquiryStatusNew,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&enquiry).Error; err != nil {
		respondError(c, err)
		return
	}
	h.signal.changed(c.Request.Context(), "enquiries")
	c.JSON(http.StatusCreated, gin.H{"status": "Enquiry received", "id": enquiry.ID})
}

func (h *EnquiryHandler) find(c *gin.Context) ([]models.ContactEnquiry, error) {
	query := h.DB.WithContext(c.Request.Context()).Order("created_at desc, id desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	var enquiries []models.ContactEnquiry
	err := query.Find(&enquiries).Error
	if enquiries == nil {
		enquiries = []models.ContactEnquiry{}
	}
	return enquiries, err
}

func (h *EnquiryHandler) ListEnquiries(c *gin.Context) {
	enquiries, err := h.find(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enquiries)
}

func (h *EnquiryHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validStatus(req.Status, []string{models.EnquiryStatusNew, models.EnquiryStatusRead, models.EnquiryStatusReplied}) {
		respondError(c, models.ErrInvalidStatus)
		return
	}

	res := h.DB.WithContext(c.Request.Context()).Model(&models.ContactEnquiry{}).Where("id = ?", id).Update("status", req.Status)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Enquiry updated"})
}

func (h *EnquiryHandler) DeleteEnquiry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.ContactEnquiry{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Enquiry deleted"})
}

func (h *EnquiryHandler) ExportEnquiries(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	enquiries, err := h.find(c)
	if err != nil {
		respondError(c, err)
		return
	}
	writeExport(c, format, "enquiries", export.EnquiryTable(enquiries), h.now())
}
