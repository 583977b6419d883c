package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/eventledger/internal/logging"
	"github.com/JonMunkholm/eventledger/internal/sheet"
)

// ImportSheet appends the rows of an uploaded spreadsheet to the ledger.
// Rows missing a date, type or person are skipped and counted.
func (s *Service) ImportSheet(ctx context.Context, fileName string, r io.Reader) (SheetImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return SheetImportResult{}, err
	}
	defer s.limiter.Release()

	importID := uuid.NewString()
	logger := logging.WithFields(ctx,
		"import_id", importID,
		"file", fileName,
		"client_ip", ClientIPFromContext(ctx),
	)
	start := time.Now()

	table, err := sheet.Read(fileName, r)
	if err != nil {
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			return SheetImportResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
		}
		logger.Error("spreadsheet import failed", "error", err)
		return SheetImportResult{}, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}

	rows, skipped, err := EventsFromTable(table)
	if err != nil {
		logger.Warn("spreadsheet rejected", "error", err)
		return SheetImportResult{}, err
	}

	s.mu.Lock()
	for i := range rows {
		rows[i].ID = s.nextID
		s.nextID++
	}
	s.events = append(s.events, rows...)
	if len(rows) > 0 {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	logger.Info("spreadsheet import finished",
		"added", len(rows),
		"skipped", skipped,
		"duration", time.Since(start),
	)

	return SheetImportResult{
		ImportID: importID,
		FileName: fileName,
		Added:    len(rows),
		Skipped:  skipped,
	}, nil
}

// EventsFromTable converts spreadsheet rows to events without ids. The first
// row is the header. Returns the events and the number of skipped rows.
func EventsFromTable(table *sheet.Table) ([]Event, int, error) {
	if table == nil || len(table.Rows) < 2 {
		return nil, 0, ErrNoDataRows
	}

	idx, err := ValidateHeaders(table.HeaderText())
	if err != nil {
		return nil, 0, err
	}

	cell := func(row int, col Column) sheet.Cell {
		pos, ok := idx[col]
		if !ok {
			return sheet.Cell{}
		}
		return table.Cell(row, pos)
	}

	var events []Event
	skipped := 0
	for row := 1; row < len(table.Rows); row++ {
		date := cell(row, ColDate)
		typ := strings.TrimSpace(cellValue(cell(row, ColType)))
		person := strings.TrimSpace(cellValue(cell(row, ColPerson)))

		if strings.TrimSpace(cellValue(date)) == "" || typ == "" || person == "" {
			skipped++
			continue
		}

		events = append(events, Event{
			Date:   cellDate(date, table.Date1904),
			Type:   typ,
			Person: person,
			Amount: NormalizeAmount(cellValue(cell(row, ColAmount))),
			Notes:  strings.TrimSpace(cellValue(cell(row, ColNotes))),
		})
	}

	return events, skipped, nil
}

// cellValue renders a cell as text. A numeric zero reads as blank.
func cellValue(c sheet.Cell) string {
	if c.Kind == sheet.Number {
		return FormatNumber(c.Num)
	}
	return c.Text()
}

// cellDate normalizes a date cell. Typed dates and serial numbers become
// YYYY-MM-DD; text is kept as written.
func cellDate(c sheet.Cell, date1904 bool) string {
	switch c.Kind {
	case sheet.Date:
		if c.Str != "" {
			return c.Str
		}
		return FormatDate(c.Time)
	case sheet.Number:
		return sheet.SerialToDate(c.Num, date1904)
	case sheet.String:
		return c.Str
	default:
		return ""
	}
}
