package webhook

import (
	"net/http"

	"nibog/internal/config"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handler struct {
	Config *config.Config
	DB     *gorm.DB
}

func NewHandler(cfg *config.Config, db *gorm.DB) *Handler {
	return &Handler{Config: cfg, DB: db}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		expected := h.Config.Credentials().VerifyToken
		if mode == "subscribe" && expected != "" && token == expected {
			logrus.Info("webhook verified")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

// advancesFrom lists, per delivery state, the log states it may replace.
// Receipts can arrive out of order, so delivered never overwrites read.
// failed applies whatever the current state.
var advancesFrom = map[string][]string{
	models.LogStatusDelivered: {models.LogStatusSent},
	models.LogStatusRead:      {models.LogStatusSent, models.LogStatusDelivered},
}

// HandleMessage stores inbound messages and applies delivery receipts to the
// outbound log entry with the same provider message id.
func (h *Handler) HandleMessage(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logrus.WithError(err).Warn("invalid webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				h.storeInbound(db, message)
			}
			for _, status := range change.Value.Statuses {
				h.applyStatus(db, status)
			}
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) storeInbound(db *gorm.DB, message Message) {
	entry := models.NotificationLog{
		Channel:           models.ChannelWhatsApp,
		Direction:         models.DirectionInbound,
		Recipient:         message.From,
		Content:           message.Summary(),
		Status:            models.LogStatusReceived,
		ProviderMessageID: message.ID,
	}
	if err := db.Create(&entry).Error; err != nil {
		logrus.WithError(err).WithField("from", message.From).Error("store inbound message")
		return
	}
	logrus.WithFields(logrus.Fields{"from": message.From, "type": message.Type}).Info("inbound whatsapp message")
}

func (h *Handler) applyStatus(db *gorm.DB, status Status) {
	if status.ID == "" {
		return
	}
	query := db.Model(&models.NotificationLog{}).
		Where("provider_message_id = ? AND direction = ?", status.ID, models.DirectionOutbound)
	if status.Status != models.LogStatusFailed {
		from, ok := advancesFrom[status.Status]
		if !ok {
			return
		}
		query = query.Where("status IN ?", from)
	}
	res := query.Update("status", status.Status)
	if res.Error != nil {
		logrus.WithError(res.Error).WithField("message_id", status.ID).Error("apply delivery status")
		return
	}
	if res.RowsAffected == 0 {
		logrus.WithFields(logrus.Fields{"message_id": status.ID, "status": status.Status}).Debug("status not applied")
	}
}
