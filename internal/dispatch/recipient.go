package dispatch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Recipient is one row of contact data. Keys are lower-case field names.
type Recipient map[string]string

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe    = regexp.MustCompile(`\D`)
)

var ErrUnsupportedFile = errors.New("unsupported recipient file, expected .csv or .xlsx")

// NewRecipient copies fields with trimmed, lower-cased keys and trimmed values.
func NewRecipient(fields map[string]string) Recipient {
	r := make(Recipient, len(fields))
	for k, v := range fields {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		r[key] = strings.TrimSpace(v)
	}
	return r
}

func (r Recipient) lookup(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func (r Recipient) Email() string { return r.lookup("email", "email_address", "mail") }

func (r Recipient) Phone() string {
	return r.lookup("phone", "mobile", "whatsapp", "phone_number", "contact")
}

func (r Recipient) Name() string { return r.lookup("name", "parent_name", "full_name") }

// Render replaces every {{key}} in tmpl with the recipient's value for key.
// Unknown keys render as the empty string. Substituted values are not
// re-scanned for placeholders.
func Render(tmpl string, r Recipient) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		if v, ok := r[key]; ok {
			return v
		}
		return r[strings.ToLower(key)]
	})
}

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// NormalizePhone keeps digits only, drops leading zeros and prefixes
// countryCode to bare 10-digit national numbers.
func NormalizePhone(raw, countryCode string) string {
	digits := strings.TrimLeft(nonDigitRe.ReplaceAllString(raw, ""), "0")
	if len(digits) == 10 && countryCode != "" {
		return countryCode + digits
	}
	return digits
}

// ParseRecipients reads a .csv or .xlsx upload. The first row holds the field
// names; blank rows are skipped.
func ParseRecipients(filename string, r io.Reader) ([]Recipient, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		records, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = records
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		rows, err = f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
		}
	default:
		return nil, ErrUnsupportedFile
	}

	return fromRows(rows), nil
}

func fromRows(rows [][]string) []Recipient {
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var out []Recipient
	for _, row := range rows[1:] {
		rec := Recipient{}
		blank := true
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v != "" {
				blank = false
			}
			rec[header[i]] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}
