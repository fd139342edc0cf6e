package models

import (
	"time"
)

const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"

	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"

	LogStatusSent      = "sent"
	LogStatusFailed    = "failed"
	LogStatusDelivered = "delivered"
	LogStatusRead      = "read"
	LogStatusReceived  = "received"

	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// EmailTemplate is an admin-managed email body with {{field}} placeholders.
type EmailTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Type      string    `gorm:"type:varchar(50)" json:"type"` // booking_confirmation, reminder, marketing
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

// WhatsAppTemplate is a message template synced from the WhatsApp Business API.
type WhatsAppTemplate struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"type:varchar(255)" json:"name"`
	Language   string `gorm:"type:varchar(50)" json:"language"`
	Category   string `gorm:"type:varchar(100)" json:"category"`
	Status     string `gorm:"type:varchar(50)" json:"status"`
	Components string `gorm:"type:text" json:"components"` // JSON components
}

func (WhatsAppTemplate) TableName() string {
	return "whatsapp_templates"
}

// NotificationLog records one outbound send or inbound WhatsApp message.
type NotificationLog struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Channel           string    `gorm:"type:varchar(20);index" json:"channel"`
	Direction         string    `gorm:"type:varchar(10);default:'outbound'" json:"direction"`
	Recipient         string    `gorm:"type:varchar(255);index" json:"recipient"`
	Content           string    `gorm:"type:text" json:"content"`
	Status            string    `gorm:"type:varchar(20)" json:"status"`
	ProviderMessageID string    `gorm:"type:varchar(255);index" json:"provider_message_id"`
	RunID             string    `gorm:"type:varchar(36);index" json:"run_id"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}

// DispatchRun is the aggregate outcome of one bulk send.
type DispatchRun struct {
	ID         string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Channel    string     `gorm:"type:varchar(20)" json:"channel"`
	Template   string     `gorm:"type:varchar(255)" json:"template"`
	Total      int        `json:"total"`
	Attempted  int        `json:"attempted"`
	Sent       int        `json:"sent"`
	Failed     int        `json:"failed"`
	Invalid    int        `json:"invalid"`
	Status     string     `gorm:"type:varchar(20)" json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (DispatchRun) TableName() string {
	return "dispatch_runs"
}

// OutboundLog builds the log row for one send attempt. Error text is not kept.
func OutboundLog(channel, recipient, content, providerID, runID string, sendErr error) NotificationLog {
	status := LogStatusSent
	if sendErr != nil {
		status = LogStatusFailed
	}
	return NotificationLog{
		Channel:           channel,
		Direction:         DirectionOutbound,
		Recipient:         recipient,
		Content:           content,
		Status:            status,
		ProviderMessageID: providerID,
		RunID:             runID,
	}
}
