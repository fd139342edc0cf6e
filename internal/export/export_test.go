package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"nibog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleBookings() []models.Booking {
	dob := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return []models.Booking{
		{
			BookingRef:    "NIB-ABCDEF12",
			ParentName:    "Priya, Sharma",
			Email:         "p@x.com",
			Phone:         "9876543210",
			ChildName:     "Aarav",
			ChildDOB:      &dob,
			TotalAmount:   1798,
			PaymentStatus: models.PaymentStatusPaid,
			Status:        models.BookingStatusConfirmed,
			Event:         &models.Event{Title: "NIBOG Hyderabad", City: "Hyderabad", EventDate: time.Date(2026, 11, 7, 0, 0, 0, 0, time.UTC)},
			Games:         []models.BookingGame{{GameName: "Baby Crawling"}, {GameName: "Running Race"}},
		},
		{BookingRef: "NIB-2", ParentName: "Ravi", ChildName: "Anya"},
	}
}

func TestBookingTable(t *testing.T) {
	tbl := BookingTable(sampleBookings())

	require.Len(t, tbl.Rows, 2)
	row := tbl.Rows[0]
	assert.Len(t, row, len(tbl.Headers))
	assert.Equal(t, "NIB-ABCDEF12", row[0])
	assert.Equal(t, "2026-11-07", row[2])
	assert.Equal(t, "2024-03-10", row[8])
	assert.Equal(t, "Baby Crawling, Running Race", row[9])
	assert.Equal(t, "1798.00", row[10])
	assert.Equal(t, "", tbl.Rows[1][1])
}

func TestWriteCSVQuotesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, BookingTable(sampleBookings())))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Booking Ref", records[0][0])
	assert.Equal(t, "Priya, Sharma", records[1][4])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, BookingTable(sampleBookings())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bookings"}, f.GetSheetList())
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "NIB-ABCDEF12", rows[1][0])
}

func TestWritePDF(t *testing.T) {
	tbl := Table{Title: "Bookings", Headers: []string{"Ref", "Parent"}}
	for i := 0; i < 80; i++ {
		tbl.Rows = append(tbl.Rows, []string{"NIB-1", "A very long parent name that will not fit inside the column width at all"})
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, PDF, tbl))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	assert.Equal(t, "bookings_2026-10-16.xlsx", f.Filename("bookings", time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)))

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}
