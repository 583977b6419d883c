package core

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/eventledger/internal/logging"
)

// CreateEvent validates in, assigns the next id and stores the record.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	if err := ValidateEventInput(in); err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev := Event{
		ID:     s.nextID,
		Date:   in.Date,
		Type:   in.Type,
		Person: strings.TrimSpace(in.Person),
		Amount: NormalizeAmount(string(in.Amount)),
		Notes:  strings.TrimSpace(in.Notes),
	}
	s.nextID++
	s.events = append(s.events, ev)
	s.persistLocked(ctx)

	logging.FromContext(ctx).Info("event created", "event_id", ev.ID, "type", ev.Type)
	return ev, nil
}

// ListEvents returns the events matching filter, newest date first.
// Dates that cannot be parsed sort after all others.
func (s *Service) ListEvents(filter EventFilter) []Event {
	s.mu.Lock()
	out := make([]Event, 0, len(s.events))
	needle := strings.ToLower(filter.Person)
	for _, ev := range s.events {
		if filter.Type != "" && ev.Type != filter.Type {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(ev.Person), needle) {
			continue
		}
		out = append(out, ev)
	}
	s.mu.Unlock()

	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders events by date, newest first, keeping the relative
// order of equal dates.
func SortByDateDesc(events []Event) {
	type keyed struct {
		ev Event
		t  time.Time
		ok bool
	}
	keys := make([]keyed, len(events))
	for i, ev := range events {
		t, ok := ParseDate(ev.Date)
		keys[i] = keyed{ev: ev, t: t, ok: ok}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].ok != keys[j].ok {
			return keys[i].ok
		}
		return keys[i].t.After(keys[j].t)
	})

	for i, k := range keys {
		events[i] = k.ev
	}
}

// DeleteEvent removes the event with the given id.
func (s *Service) DeleteEvent(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.events, func(ev Event) bool { return ev.ID == id })
	if i < 0 {
		return ErrEventNotFound
	}

	s.events = slices.Delete(s.events, i, i+1)
	s.persistLocked(ctx)

	logging.FromContext(ctx).Info("event deleted", "event_id", id)
	return nil
}

// DeleteAllEvents clears the ledger and restarts ids at 1.
func (s *Service) DeleteAllEvents(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	s.events = []Event{}
	s.nextID = 1
	s.persistLocked(ctx)

	logging.FromContext(ctx).Info("all events deleted", "count", n)
	return n
}
