package core

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/eventledger/internal/logging"
)

// ServiceOptions tunes a Service. Zero values pick defaults.
type ServiceOptions struct {
	MaxConcurrentImports int
	MaxImportWait        time.Duration

	// Now is the clock used for export timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Service owns the ledger state: the events, the type registry and the id
// counter. All methods are safe for concurrent use.
type Service struct {
	store   Persister
	limiter *ImportLimiter
	now     func() time.Time

	mu     sync.Mutex
	events []Event
	types  []string
	nextID int
}

// NewService loads the persisted state and returns a ready Service.
func NewService(ctx context.Context, store Persister, opts ServiceOptions) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	st := store.Load(ctx)
	s := &Service{
		store:   store,
		limiter: NewImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait),
		now:     now,
		events:  st.Events,
		types:   st.Types,
		nextID:  st.NextID,
	}
	if s.events == nil {
		s.events = []Event{}
	}
	if s.types == nil {
		s.types = slices.Clone(DefaultTypes)
	}
	if s.nextID < 1 {
		s.nextID = NextIDAfter(s.events)
	}

	logging.FromContext(ctx).Info("ledger loaded",
		"events", len(s.events),
		"types", len(s.types),
		"next_id", s.nextID,
	)
	return s
}

// Limiter exposes the import limiter for monitoring.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Shutdown waits for running imports to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.limiter.Drain(ctx)
}

// State returns a copy of the current ledger state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Service) stateLocked() State {
	return State{
		Events: slices.Clone(s.events),
		Types:  slices.Clone(s.types),
		NextID: s.nextID,
	}
}

// persistLocked rewrites both collections. It must be called with s.mu held
// so that saves reach the store in mutation order. Failures are logged only;
// the in-memory state stays authoritative.
func (s *Service) persistLocked(ctx context.Context) {
	if err := s.store.Save(context.WithoutCancel(ctx), s.stateLocked()); err != nil {
		logging.FromContext(ctx).Warn("failed to persist ledger", "error", err)
	}
}

// NextIDAfter returns one past the largest id in events, or 1 when empty.
func NextIDAfter(events []Event) int {
	next := 1
	for _, ev := range events {
		if ev.ID >= next {
			next = ev.ID + 1
		}
	}
	return next
}
