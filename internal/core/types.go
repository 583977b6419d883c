package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTypes are the type-tags a fresh ledger starts with.
var DefaultTypes = []string{"결혼", "장례"}

// Event is one recorded occasion. Records are never updated in place.
type Event struct {
	ID     int     `json:"id"`
	Date   string  `json:"date"`
	Type   string  `json:"type"`
	Person string  `json:"person"`
	Amount *string `json:"amount"`
	Notes  string  `json:"notes"`
}

// EventInput is the payload accepted by CreateEvent.
type EventInput struct {
	Date   string      `json:"date"`
	Type   string      `json:"type"`
	Person string      `json:"person"`
	Amount AmountValue `json:"amount"`
	Notes  string      `json:"notes"`
}

// EventFilter narrows ListEvents. Empty fields match everything.
type EventFilter struct {
	Type   string // exact match
	Person string // case-insensitive substring
}

// AmountValue accepts a JSON string or number. A JSON number is rendered to
// its shortest decimal text; null and numeric zero decode to "".
type AmountValue string

func (a *AmountValue) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*a = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountValue(s)
		return nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("amount must be a string or number, got %s", raw)
	}
	if d.IsZero() {
		*a = ""
		return nil
	}
	*a = AmountValue(d.String())
	return nil
}

// State is everything the ledger persists, plus the id counter derived from it.
type State struct {
	Events []Event
	Types  []string
	NextID int
}

// Persister loads and saves the ledger state. Load never fails: an unreadable
// backing store yields the default state.
type Persister interface {
	Load(ctx context.Context) State
	Save(ctx context.Context, st State) error
}

// Snapshot is the backup document produced by Export.
type Snapshot struct {
	Events       []Event  `json:"events"`
	Types        []string `json:"types"`
	LastExported string   `json:"lastExported"`
}

// SheetImportResult summarizes a spreadsheet import.
type SheetImportResult struct {
	ImportID string `json:"importId"`
	FileName string `json:"fileName"`
	Added    int    `json:"added"`
	Skipped  int    `json:"skipped"`
}

// SnapshotImportResult summarizes a backup import.
type SnapshotImportResult struct {
	Events int `json:"events"`
	Types  int `json:"types"`
}

// Column identifies a ledger field in an imported spreadsheet.
type Column string

const (
	ColDate   Column = "date"
	ColType   Column = "type"
	ColPerson Column = "person"
	ColAmount Column = "amount"
	ColNotes  Column = "notes"
)

// FieldSpec describes one spreadsheet column.
type FieldSpec struct {
	Key      Column
	Label    string // header as written by the UI's export template
	Required bool
}

// LedgerColumns are the spreadsheet columns the importer understands.
// The English Key doubles as a case-insensitive header alias.
var LedgerColumns = []FieldSpec{
	{Key: ColDate, Label: "날짜", Required: true},
	{Key: ColType, Label: "구분", Required: true},
	{Key: ColPerson, Label: "대상자", Required: true},
	{Key: ColAmount, Label: "금액"},
	{Key: ColNotes, Label: "메모"},
}

// HeaderIndex maps columns to their position in the header row.
type HeaderIndex map[Column]int
