package api

import (
	"errors"
	"fmt"
	"net/http"

	"nibog/internal/config"
	"nibog/internal/dispatch"
	"nibog/internal/metrics"
	"nibog/internal/models"
	"nibog/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WhatsAppHandler struct {
	DB     *gorm.DB
	Client *whatsapp.Client
	Config *config.Config
}

func NewWhatsAppHandler(db *gorm.DB, client *whatsapp.Client, cfg *config.Config) *WhatsAppHandler {
	return &WhatsAppHandler{DB: db, Client: client, Config: cfg}
}

func (h *WhatsAppHandler) requireWABA(c *gin.Context) bool {
	if h.Config.Credentials().WhatsAppBusinessAccountID == "" {
		respondError(c, fmt.Errorf("WABA_ID: %w", models.ErrNotConfigured))
		return false
	}
	return true
}

// providerError reports a WhatsApp API failure, keeping the provider's status
// when it returned one.
func providerError(c *gin.Context, err error) {
	var apiErr *whatsapp.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error(), "provider_status": apiErr.StatusCode})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

// SyncTemplates fetches templates from the Business API and upserts them locally.
func (h *WhatsAppHandler) SyncTemplates(c *gin.Context) {
	if !h.requireWABA(c) {
		return
	}
	list, err := h.Client.GetTemplates(c.Request.Context())
	if err != nil {
		providerError(c, err)
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	synced := 0
	for _, remote := range list.Data {
		components := "[]"
		if len(remote.Components) > 0 {
			components = string(remote.Components)
		}
		tmpl := models.WhatsAppTemplate{
			ID:         remote.ID,
			Name:       remote.Name,
			Language:   remote.Language,
			Category:   remote.Category,
			Status:     remote.Status,
			Components: components,
		}
		if err := db.Save(&tmpl).Error; err != nil {
			logrus.WithError(err).WithField("template", remote.Name).Error("save whatsapp template")
			continue
		}
		synced++
	}

	c.JSON(http.StatusOK, gin.H{"status": "Templates synced", "count": synced})
}

// GetTemplates returns the templates stored by the last sync.
func (h *WhatsAppHandler) GetTemplates(c *gin.Context) {
	var templates []models.WhatsAppTemplate
	if err := h.DB.WithContext(c.Request.Context()).Order("name").Find(&templates).Error; err != nil {
		respondError(c, err)
		return
	}
	if templates == nil {
		templates = []models.WhatsAppTemplate{}
	}
	c.JSON(http.StatusOK, templates)
}

// GetRemoteTemplates returns templates straight from the Business API.
func (h *WhatsAppHandler) GetRemoteTemplates(c *gin.Context) {
	if !h.requireWABA(c) {
		return
	}
	list, err := h.Client.GetTemplates(c.Request.Context())
	if err != nil {
		providerError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *WhatsAppHandler) CreateTemplate(c *gin.Context) {
	if !h.requireWABA(c) {
		return
	}
	var templateData map[string]interface{}
	if err := c.ShouldBindJSON(&templateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.Client.CreateTemplate(c.Request.Context(), templateData)
	if err != nil {
		providerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteTemplate removes a template by name from the Business API and the local copy.
func (h *WhatsAppHandler) DeleteTemplate(c *gin.Context) {
	if !h.requireWABA(c) {
		return
	}
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template name required (query param 'name')"})
		return
	}
	if err := h.Client.DeleteTemplate(c.Request.Context(), name); err != nil {
		providerError(c, err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Where("name = ?", name).Delete(&models.WhatsAppTemplate{}).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

type SendRequest struct {
	To           string   `json:"to" binding:"required"`
	Message      string   `json:"message"`
	TemplateName string   `json:"template_name"`
	Language     string   `json:"language"`
	Params       []string `json:"params"`
}

// SendMessage sends one text or template message and logs it.
func (h *WhatsAppHandler) SendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := dispatch.NormalizePhone(req.To, h.Config.DefaultCountryCode)
	var msg whatsapp.GenericMessage
	switch {
	case req.TemplateName != "":
		lang := req.Language
		if lang == "" {
			lang = h.Config.WhatsAppLanguage
		}
		msg = whatsapp.TemplateMessage(to, req.TemplateName, lang, req.Params)
	case req.Message != "":
		msg = whatsapp.TextMessage(to, req.Message)
	default:
		respondError(c, models.ErrNoMessage)
		return
	}

	id, err := h.Client.SendRawMessage(c.Request.Context(), msg)
	metrics.IncNotification(models.ChannelWhatsApp, err == nil)
	entry := models.OutboundLog(models.ChannelWhatsApp, to, msg.Content(), id, "", err)
	if dbErr := h.DB.WithContext(c.Request.Context()).Create(&entry).Error; dbErr != nil {
		logrus.WithError(dbErr).Warn("record whatsapp send")
	}
	if err != nil {
		providerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Message sent", "message_id": id})
}
