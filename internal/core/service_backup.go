package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/JonMunkholm/eventledger/internal/logging"
)

// Export returns a snapshot of both collections and the suggested file name.
func (s *Service) Export() (Snapshot, string) {
	now := s.now().UTC()

	s.mu.Lock()
	snap := Snapshot{
		Events:       slices.Clone(s.events),
		Types:        slices.Clone(s.types),
		LastExported: now.Format("2006-01-02T15:04:05.000Z"),
	}
	s.mu.Unlock()

	return snap, BackupFileName(now)
}

// BackupFileName is the download name of a snapshot taken at t.
func BackupFileName(t time.Time) string {
	return "event_manager_backup_" + t.UTC().Format(DateLayout) + ".json"
}

// MarshalIndented renders the snapshot as 2-space indented JSON.
func (snap Snapshot) MarshalIndented() ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

// snapshotEvent is an event as read from a backup. Its id is discarded.
type snapshotEvent struct {
	Date   string      `json:"date"`
	Type   string      `json:"type"`
	Person string      `json:"person"`
	Amount AmountValue `json:"amount"`
	Notes  string      `json:"notes"`
}

// ImportSnapshot replaces both collections with the content of a backup.
// Events get fresh ids from the running counter in document order; types are
// taken as written.
func (s *Service) ImportSnapshot(ctx context.Context, data []byte) (SnapshotImportResult, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return SnapshotImportResult{}, err
	}
	defer s.limiter.Release()

	events, types, err := decodeSnapshot(data)
	if err != nil {
		logging.FromContext(ctx).Warn("backup import rejected", "error", err)
		return SnapshotImportResult{}, err
	}

	s.mu.Lock()
	imported := make([]Event, len(events))
	for i, e := range events {
		imported[i] = Event{
			ID:     s.nextID,
			Date:   e.Date,
			Type:   e.Type,
			Person: e.Person,
			Amount: NormalizeAmount(string(e.Amount)),
			Notes:  e.Notes,
		}
		s.nextID++
	}
	s.events = imported
	s.types = types
	s.persistLocked(ctx)
	s.mu.Unlock()

	logging.FromContext(ctx).Info("backup imported",
		"events", len(imported),
		"types", len(types),
		"client_ip", ClientIPFromContext(ctx),
	)

	return SnapshotImportResult{Events: len(imported), Types: len(types)}, nil
}

// decodeSnapshot parses a backup document. Text that is not JSON yields
// ErrImportFailed; JSON without "events" and "types" arrays of the right shape
// yields ErrInvalidSnapshot.
func decodeSnapshot(data []byte) ([]snapshotEvent, []string, error) {
	if !json.Valid(data) {
		return nil, nil, fmt.Errorf("%w: not valid JSON", ErrImportFailed)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	rawEvents, rawTypes := doc["events"], doc["types"]
	if !isArray(rawEvents) || !isArray(rawTypes) {
		return nil, nil, ErrInvalidSnapshot
	}

	var events []snapshotEvent
	if err := json.Unmarshal(rawEvents, &events); err != nil {
		return nil, nil, fmt.Errorf("%w: events: %v", ErrInvalidSnapshot, err)
	}
	types := []string{}
	if err := json.Unmarshal(rawTypes, &types); err != nil {
		return nil, nil, fmt.Errorf("%w: types: %v", ErrInvalidSnapshot, err)
	}

	return events, types, nil
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}
