package models

import (
	"time"
)

const (
	FAQStatusActive   = "active"
	FAQStatusInactive = "inactive"
)

type FAQ struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Question     string    `gorm:"type:text;not null" json:"question"`
	Answer       string    `gorm:"type:text;not null" json:"answer"`
	Category     string    `gorm:"type:varchar(100)" json:"category"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	Status       string    `gorm:"type:varchar(20);default:'active'" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FAQ) TableName() string {
	return "faqs"
}

// PolicyPage holds the markdown source of a legal page (terms, privacy, refund).
type PolicyPage struct {
	Slug      string    `gorm:"primaryKey;type:varchar(50)" json:"slug"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PolicyPage) TableName() string {
	return "policy_pages"
}

var PolicySlugs = map[string]string{
	"terms":   "Terms & Conditions",
	"privacy": "Privacy Policy",
	"refund":  "Refund Policy",
}

// FooterSetting is a single-row table (ID 1).
type FooterSetting struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyName   string    `gorm:"type:varchar(255)" json:"company_name"`
	Description   string    `gorm:"type:text" json:"description"`
	Address       string    `gorm:"type:text" json:"address"`
	Phone         string    `gorm:"type:varchar(50)" json:"phone"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	Newsletter    bool      `json:"newsletter_enabled"`
	CopyrightText string    `gorm:"type:varchar(255)" json:"copyright_text"`
	FacebookURL   string    `gorm:"type:text" json:"facebook_url"`
	InstagramURL  string    `gorm:"type:text" json:"instagram_url"`
	TwitterURL    string    `gorm:"type:text" json:"twitter_url"`
	YoutubeURL    string    `gorm:"type:text" json:"youtube_url"`
	LinkedinURL   string    `gorm:"type:text" json:"linkedin_url"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FooterSetting) TableName() string {
	return "footer_settings"
}

// GeneralSetting is a single-row table (ID 1).
type GeneralSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SiteName     string    `gorm:"type:varchar(255)" json:"site_name"`
	SiteTagline  string    `gorm:"type:varchar(255)" json:"site_tagline"`
	ContactEmail string    `gorm:"type:varchar(255)" json:"contact_email"`
	ContactPhone string    `gorm:"type:varchar(50)" json:"contact_phone"`
	Address      string    `gorm:"type:text" json:"address"`
	LogoURL      string    `gorm:"type:text" json:"logo_url"`
	FaviconURL   string    `gorm:"type:text" json:"favicon_url"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GeneralSetting) TableName() string {
	return "general_settings"
}

// SystemSetting is a key/value pair overriding provider configuration.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;type:varchar(100);not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	EnquiryStatusNew     = "new"
	EnquiryStatusRead    = "read"
	EnquiryStatusReplied = "replied"
)

// ContactEnquiry is a message submitted through the public contact form.
type ContactEnquiry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Status    string    `gorm:"type:varchar(20);default:'new';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContactEnquiry) TableName() string {
	return "contact_enquiries"
}
