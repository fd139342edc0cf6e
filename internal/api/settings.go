package api

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"nibog/internal/config"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsHandler manages provider credentials that may change without a
// restart. mu serialises updates so the table and the live config agree.
type SettingsHandler struct {
	DB  *gorm.DB
	Cfg *config.Config
	mu  *sync.Mutex
}

func NewSettingsHandler(db *gorm.DB, cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{DB: db, Cfg: cfg, mu: &sync.Mutex{}}
}

// SettingView is a setting as shown to the admin UI. Secrets are masked.
type SettingView struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Configured bool   `json:"configured"`
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "_TOKEN") || strings.HasSuffix(key, "_API_KEY")
}

func mask(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	keys := h.Cfg.SettingKeys()
	views := make([]SettingView, 0, len(keys))
	for _, key := range keys {
		value, _ := h.Cfg.Setting(key)
		shown := value
		if isSecret(key) {
			shown = mask(value)
		}
		views = append(views, SettingView{Key: key, Value: shown, Configured: value != ""})
	}
	c.JSON(http.StatusOK, views)
}

type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// UpdateSettings stores the given keys and applies them to the running config.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	values := make(map[string]string, len(req.Settings))
	for key, value := range req.Settings {
		if _, ok := h.Cfg.Setting(key); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrUnknownSetting.Error() + ": " + key})
			return
		}
		values[key] = strings.TrimSpace(value)
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			row := models.SystemSetting{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Cfg.ApplySettings(values); err != nil {
		respondError(c, err)
		return
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	logrus.WithField("keys", keys).Info("system settings updated")

	c.JSON(http.StatusOK, gin.H{"status": "Settings updated", "updated": keys})
}
