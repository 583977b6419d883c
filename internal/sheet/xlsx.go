package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first sheet of an .xlsx/.xlsm workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	name := sheets[0]

	table := &Table{}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		table.Date1904 = *props.Date1904
	}

	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	c := &classifier{f: f, sheet: name, date1904: table.Date1904, dateStyles: make(map[int]bool)}
	table.Rows = make([][]Cell, len(raw))
	for i, row := range raw {
		cells := make([]Cell, len(row))
		for j, value := range row {
			cell, err := c.classify(i+1, j+1, value)
			if err != nil {
				return nil, err
			}
			cells[j] = cell
		}
		table.Rows[i] = cells
	}

	return table, nil
}

// classifier turns raw cell values into typed cells, caching whether each
// style index is a date format.
type classifier struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (c *classifier) classify(row, col int, value string) (Cell, error) {
	if value == "" {
		return Cell{}, nil
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{}, err
	}
	typ, err := c.f.GetCellType(c.sheet, ref)
	if err != nil {
		return Cell{}, fmt.Errorf("cell %s: %w", ref, err)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return StringCell(value), nil

	case excelize.CellTypeBool:
		if value == "1" {
			return StringCell("true"), nil
		}
		return StringCell("false"), nil

	case excelize.CellTypeDate:
		// ISO 8601 text stored with t="d"
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, value); err == nil {
				return DateCell(t), nil
			}
		}
		return StringCell(value), nil
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return StringCell(value), nil
	}

	if c.isDateStyled(ref) {
		if cell := SerialDateCell(num, c.date1904); !cell.IsEmpty() {
			return cell, nil
		}
	}
	return NumberCell(num), nil
}

func (c *classifier) isDateStyled(ref string) bool {
	idx, err := c.f.GetCellStyle(c.sheet, ref)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := c.dateStyles[idx]; ok {
		return v
	}

	isDate := false
	if style, err := c.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = IsDateFormat(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	c.dateStyles[idx] = isDate
	return isDate
}

// firstCustomFormat is the lowest number format id a workbook may define.
const firstCustomFormat = 164

// isBuiltinDateFormat reports whether a built-in number format id displays a
// date. Ids 27-36 and 50-58 are the East Asian date formats.
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58,
		id >= 71 && id <= 81:
		return true
	}
	return false
}

// IsDateFormat reports whether a custom number format displays a date, i.e.
// has a year or day token outside quoted literals, escapes and [..] sections.
func IsDateFormat(format string) bool {
	inQuote := false
	inBracket := false
	escaped := false

	for _, r := range strings.ToLower(format) {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}
