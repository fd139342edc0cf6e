package export

import (
	"fmt"
	"strings"

	"nibog/internal/models"
)

var bookingHeaders = []string{
	"Booking Ref", "Event", "Event Date", "City", "Parent", "Email", "Phone",
	"Child", "Child DOB", "Games", "Amount", "Payment Method", "Payment Status", "Status", "Booked At",
}

// BookingTable flattens bookings (with Event and Games loaded) into the export grid.
func BookingTable(bookings []models.Booking) Table {
	t := Table{Title: "Bookings", Headers: bookingHeaders}
	for _, b := range bookings {
		var event, date, city, dob string
		if b.Event != nil {
			event = b.Event.Title
			date = b.Event.Day().Format("2006-01-02")
			city = b.Event.City
		}
		if b.ChildDOB != nil {
			dob = b.ChildDOB.Format("2006-01-02")
		}
		t.Rows = append(t.Rows, []string{
			b.BookingRef,
			event,
			date,
			city,
			b.ParentName,
			b.Email,
			b.Phone,
			b.ChildName,
			dob,
			strings.Join(b.GameNames(), ", "),
			fmt.Sprintf("%.2f", b.TotalAmount),
			b.PaymentMethod,
			b.PaymentStatus,
			b.Status,
			b.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return t
}

func EnquiryTable(enquiries []models.ContactEnquiry) Table {
	t := Table{
		Title:   "Enquiries",
		Headers: []string{"ID", "Name", "Email", "Phone", "Subject", "Message", "Status", "Received At"},
	}
	for _, e := range enquiries {
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(e.ID),
			e.Name,
			e.Email,
			e.Phone,
			e.Subject,
			e.Message,
			e.Status,
			e.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return t
}
