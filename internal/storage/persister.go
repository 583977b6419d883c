package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/eventledger/internal/core"
	"github.com/JonMunkholm/eventledger/internal/logging"
)

// Persister implements core.Persister over a DocumentStore.
type Persister struct {
	store DocumentStore
}

// NewPersister returns a Persister writing to store.
func NewPersister(store DocumentStore) *Persister {
	return &Persister{store: store}
}

// storedEvent accepts events written by older versions, whose amount may be
// a JSON number.
type storedEvent struct {
	ID     int              `json:"id"`
	Date   string           `json:"date"`
	Type   string           `json:"type"`
	Person string           `json:"person"`
	Amount core.AmountValue `json:"amount"`
	Notes  string           `json:"notes"`
}

// Load reads both documents. A missing document yields that collection's
// default. Any other failure yields the default state for both and is logged.
func (p *Persister) Load(ctx context.Context) core.State {
	var (
		events []core.Event
		types  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = p.loadEvents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = p.loadTypes(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		logging.FromContext(ctx).Error("failed to load ledger, starting empty", "error", err)
		return DefaultState()
	}

	return core.State{
		Events: events,
		Types:  types,
		NextID: core.NextIDAfter(events),
	}
}

func (p *Persister) loadEvents(ctx context.Context) ([]core.Event, error) {
	data, err := p.store.Read(ctx, EventsDocument)
	if errors.Is(err, ErrDocumentNotFound) {
		return []core.Event{}, nil
	}
	if err != nil {
		return nil, err
	}

	var stored []storedEvent
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse %s: %w", EventsDocument, err)
	}

	events := make([]core.Event, len(stored))
	for i, e := range stored {
		events[i] = core.Event{
			ID:     e.ID,
			Date:   e.Date,
			Type:   e.Type,
			Person: e.Person,
			Amount: core.NormalizeAmount(string(e.Amount)),
			Notes:  e.Notes,
		}
	}
	return events, nil
}

func (p *Persister) loadTypes(ctx context.Context) ([]string, error) {
	data, err := p.store.Read(ctx, TypesDocument)
	if errors.Is(err, ErrDocumentNotFound) {
		return slices.Clone(core.DefaultTypes), nil
	}
	if err != nil {
		return nil, err
	}

	types := []string{}
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("parse %s: %w", TypesDocument, err)
	}
	return types, nil
}

// Save overwrites both documents with st, written concurrently.
func (p *Persister) Save(ctx context.Context, st core.State) error {
	events := st.Events
	if events == nil {
		events = []core.Event{}
	}
	types := st.Types
	if types == nil {
		types = []string{}
	}

	eventsJSON, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventsDocument, err)
	}
	typesJSON, err := json.MarshalIndent(types, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", TypesDocument, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.store.Write(gctx, EventsDocument, eventsJSON) })
	g.Go(func() error { return p.store.Write(gctx, TypesDocument, typesJSON) })
	return g.Wait()
}

// DefaultState is the state of a ledger that has never been saved.
func DefaultState() core.State {
	return core.State{
		Events: []core.Event{},
		Types:  slices.Clone(core.DefaultTypes),
		NextID: 1,
	}
}
