package api

import (
	"errors"
	"net/http"
	"strconv"

	"nibog/internal/dispatch"
	"nibog/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// validationError is a request problem reported as 400.
type validationError string

func (e validationError) Error() string { return string(e) }

func statusFor(err error) int {
	var invalid validationError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, models.ErrEventNotFound),
		errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrGameNotFound),
		errors.Is(err, models.ErrPageNotFound),
		errors.Is(err, models.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid),
		errors.Is(err, models.ErrInvalidEmail),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrNoGamesSelected),
		errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrNoRecipients),
		errors.Is(err, models.ErrNoMessage),
		errors.Is(err, models.ErrUnknownSetting),
		errors.Is(err, dispatch.ErrUnsupportedFile):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEventNotBookable),
		errors.Is(err, models.ErrGameNotInEvent),
		errors.Is(err, models.ErrTemplateInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrEventHasBookings),
		errors.Is(err, models.ErrGameInUse):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotConfigured),
		errors.Is(err, models.ErrDispatchClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to status codes. Unexpected errors are logged.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func validStatus(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// createWithFlag creates row and then persists a false boolean column, which
// gorm would otherwise replace with the column default on insert.
func createWithFlag(db *gorm.DB, row interface{}, column string, value bool) error {
	if err := db.Create(row).Error; err != nil {
		return err
	}
	if value {
		return nil
	}
	return db.Model(row).Update(column, false).Error
}
