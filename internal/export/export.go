package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"nibog/internal/models"
)

// Table is an in-memory grid rendered to CSV, XLSX or PDF.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return CSV, nil
	case CSV, XLSX, PDF:
		return f, nil
	default:
		return "", models.ErrUnsupportedFormat
	}
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// Filename is base plus a date stamp and the format extension.
func (f Format) Filename(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", base, now.Format("2006-01-02"), f)
}

// Write renders t in the given format.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case CSV:
		return WriteCSV(w, t)
	case XLSX:
		return WriteXLSX(w, t)
	case PDF:
		return WritePDF(w, t)
	default:
		return models.ErrUnsupportedFormat
	}
}
