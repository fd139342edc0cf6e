package models

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusAttended  = "attended"
	BookingStatusNoShow    = "no_show"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

var (
	BookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusAttended, BookingStatusNoShow}
	PaymentStatuses = []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded}
)

// Booking is a parent's registration of one child for games of one event.
type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	BookingRef    string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"booking_ref"`
	EventID       uint          `gorm:"index;not null" json:"event_id"`
	Event         *Event        `gorm:"foreignKey:EventID" json:"event,omitempty"`
	ParentName    string        `gorm:"type:varchar(255);not null" json:"parent_name"`
	Email         string        `gorm:"type:varchar(255);index" json:"email"`
	Phone         string        `gorm:"type:varchar(20)" json:"phone"`
	ChildName     string        `gorm:"type:varchar(255);not null" json:"child_name"`
	ChildDOB      *time.Time    `json:"child_dob"`
	ChildGender   string        `gorm:"type:varchar(20)" json:"child_gender"`
	SchoolName    string        `gorm:"type:varchar(255)" json:"school_name"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentMethod string        `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentStatus string        `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	Status        string        `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Notes         string        `gorm:"type:text" json:"notes"`
	Games         []BookingGame `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;" json:"games"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

type BookingGame struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	BookingID   uint    `gorm:"index;not null" json:"booking_id"`
	EventGameID uint    `gorm:"index;not null" json:"event_game_id"`
	GameName    string  `gorm:"type:varchar(255)" json:"game_name"`
	Price       float64 `json:"price"`
}

func (BookingGame) TableName() string {
	return "booking_games"
}

// GameNames lists the booked game names in booking order.
func (b *Booking) GameNames() []string {
	names := make([]string, 0, len(b.Games))
	for _, g := range b.Games {
		names = append(names, g.GameName)
	}
	return names
}

// WhatsAppBookingData carries what the booking confirmation template needs.
type WhatsAppBookingData struct {
	BookingRef  string
	ParentName  string
	ChildName   string
	EventTitle  string
	EventDate   time.Time
	Venue       string
	Games       []string
	TotalAmount float64
	Phone       string
}

// WhatsAppData flattens a booking and its event for the confirmation template.
func (b *Booking) WhatsAppData() WhatsAppBookingData {
	data := WhatsAppBookingData{
		BookingRef:  b.BookingRef,
		ParentName:  b.ParentName,
		ChildName:   b.ChildName,
		Games:       b.GameNames(),
		TotalAmount: b.TotalAmount,
		Phone:       b.Phone,
	}
	if b.Event != nil {
		data.EventTitle = b.Event.Title
		data.EventDate = b.Event.EventDate
		switch {
		case b.Event.Venue == "":
			data.Venue = b.Event.City
		case b.Event.City == "":
			data.Venue = b.Event.Venue
		default:
			data.Venue = b.Event.Venue + ", " + b.Event.City
		}
	}
	return data
}
