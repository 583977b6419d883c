// Package sheet reads uploaded spreadsheets into rows of typed cells.
//
// Workbooks (.xlsx, .xlsm) are read with excelize and legacy .xls workbooks
// with xlsReader, first sheet only; numbers formatted as dates become Date
// cells so callers can tell a typed date from
// a serial number that merely looks like one. CSV files are read with
// encoding/csv after stripping a UTF-8 BOM and replacing invalid UTF-8; every
// CSV cell is a String cell.
package sheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the type of a cell's value.
type Kind int

const (
	Empty Kind = iota
	String
	Number
	Date
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Date:
		return "date"
	default:
		return "empty"
	}
}

// Cell is one spreadsheet value.
type Cell struct {
	Kind Kind
	Str  string    // String; also the YYYY-MM-DD of a serial Date
	Num  float64   // Number; also the raw serial of a Date read from a workbook
	Time time.Time // Date
}

// StringCell returns a String cell, or an Empty cell for "".
func StringCell(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Kind: String, Str: s}
}

// NumberCell returns a Number cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: Number, Num: f}
}

// DateCell returns a Date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: Date, Time: t}
}

// SerialDateCell returns a Date cell for a date-formatted serial number, or
// an Empty cell when the serial is out of range. The 1900 system's phantom
// 1900-02-29 has no time.Time, so Str carries the calendar text.
func SerialDateCell(serial float64, date1904 bool) Cell {
	text := SerialToDate(serial, date1904)
	if text == "" {
		return Cell{}
	}
	t, _ := time.Parse("2006-01-02", text)
	return Cell{Kind: Date, Num: serial, Str: text, Time: t}
}

// IsEmpty reports whether the cell holds nothing.
func (c Cell) IsEmpty() bool {
	return c.Kind == Empty
}

// Text renders the cell the way it reads in a spreadsheet: numbers in their
// shortest decimal form, dates as YYYY-MM-DD.
func (c Cell) Text() string {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return decimal.NewFromFloat(c.Num).String()
	case Date:
		if c.Str != "" {
			return c.Str
		}
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// Table is the content of one sheet.
type Table struct {
	Rows [][]Cell

	// Date1904 is set for workbooks using the 1904 date system.
	Date1904 bool
}

// Cell returns the cell at row, col, or an Empty cell when out of range.
func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Cell{}
	}
	return t.Rows[row][col]
}

// HeaderText returns the first row rendered as text.
func (t *Table) HeaderText() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	out := make([]string, len(t.Rows[0]))
	for i, c := range t.Rows[0] {
		out[i] = c.Text()
	}
	return out
}
