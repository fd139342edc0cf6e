package models

import (
	"time"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Event is a dated NIBOG event held in one city and venue.
type Event struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Title        string      `gorm:"type:varchar(255);not null" json:"title"`
	Description  string      `gorm:"type:text" json:"description"`
	City         string      `gorm:"type:varchar(100);index" json:"city"`
	Venue        string      `gorm:"type:varchar(255)" json:"venue"`
	Address      string      `gorm:"type:text" json:"address"`
	EventDate    time.Time   `gorm:"index;not null" json:"event_date"`
	StartTime    string      `gorm:"type:varchar(10)" json:"start_time"`
	EndTime      string      `gorm:"type:varchar(10)" json:"end_time"`
	MinAgeMonths int         `json:"min_age_months"`
	MaxAgeMonths int         `json:"max_age_months"`
	ImageURL     string      `gorm:"type:text" json:"image_url"`
	Status       string      `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	Games        []EventGame `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE;" json:"games"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// Day is the event's calendar date. Event dates are stored as UTC midnight,
// so the date is read in UTC whatever zone the driver returned.
func (e Event) Day() time.Time {
	return DateOf(e.EventDate.UTC())
}

// DateOf returns the calendar date of t in t's own location, as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GameTemplate is a reusable game definition that events schedule as slots.
type GameTemplate struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	MinAgeMonths    int       `json:"min_age_months"`
	MaxAgeMonths    int       `json:"max_age_months"`
	DurationMinutes int       `json:"duration_minutes"`
	Categories      string    `gorm:"type:text" json:"categories"` // comma separated
	ImageURL        string    `gorm:"type:text" json:"image_url"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GameTemplate) TableName() string {
	return "game_templates"
}

// EventGame is one game slot inside an event.
type EventGame struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	EventID         uint          `gorm:"index;not null" json:"event_id"`
	GameTemplateID  uint          `gorm:"index;not null" json:"game_template_id"`
	GameTemplate    *GameTemplate `gorm:"foreignKey:GameTemplateID" json:"game,omitempty"`
	StartTime       string        `gorm:"type:varchar(10)" json:"start_time"`
	EndTime         string        `gorm:"type:varchar(10)" json:"end_time"`
	Price           float64       `json:"price"`
	MaxParticipants int           `json:"max_participants"`
}

func (EventGame) TableName() string {
	return "event_games"
}
