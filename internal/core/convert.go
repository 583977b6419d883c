package core

// convert.go normalizes the values that reach the ledger from forms and
// spreadsheets.
//
// Dates are stored as the text the user supplied; ParseDate is only used to
// order events. Amounts are free text, with blank meaning "no amount".

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical stored date format.
const DateLayout = "2006-01-02"

// Layouts tried by ParseDate, most specific first.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02", "2006/1/2",
	"2006.01.02", "2006.1.2", "2006. 1. 2", "2006. 01. 02",
	"2006-1-2",
	"1/2/2006", "01/02/2006",
	"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
	"20060102",
}

// ParseDate parses a stored event date. ok is false when no layout matches.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// trailing period as in "2024. 3. 1."
	s = strings.TrimSuffix(s, ".")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders the calendar fields of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeAmount trims s and returns nil when nothing is left.
func NormalizeAmount(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// FormatNumber renders a spreadsheet number as its shortest decimal text.
// Zero renders as "" so that it reads as a blank cell.
func FormatNumber(f float64) string {
	d := decimal.NewFromFloat(f)
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// MakeHeaderIndex maps header cells to ledger columns. A header matches a
// column by its label or, case-insensitively, by its English key. When a
// column appears twice the later position wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(LedgerColumns))
	for i, h := range header {
		h = CleanCell(h)
		for _, spec := range LedgerColumns {
			if h == spec.Label || strings.EqualFold(h, string(spec.Key)) {
				idx[spec.Key] = i
			}
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
