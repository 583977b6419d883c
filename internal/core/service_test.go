package core

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// memPersister keeps the last saved state in memory.
type memPersister struct {
	mu      sync.Mutex
	initial State
	saved   []State
	saveErr error
}

func (m *memPersister) Load(context.Context) State {
	return m.initial
}

func (m *memPersister) Save(_ context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, st)
	return m.saveErr
}

func (m *memPersister) last() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return State{}
	}
	return m.saved[len(m.saved)-1]
}

func (m *memPersister) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func newTestService(t *testing.T) (*Service, *memPersister) {
	t.Helper()
	store := &memPersister{}
	fixed := time.Date(2024, time.June, 1, 12, 30, 0, 0, time.UTC)
	svc := NewService(context.Background(), store, ServiceOptions{
		MaxConcurrentImports: 1,
		MaxImportWait:        50 * time.Millisecond,
		Now:                  func() time.Time { return fixed },
	})
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, date, typ, person string) Event {
	t.Helper()
	ev, err := svc.CreateEvent(context.Background(), EventInput{Date: date, Type: typ, Person: person})
	if err != nil {
		t.Fatalf("CreateEvent(%s, %s, %s) error = %v", date, typ, person, err)
	}
	return ev
}

func TestNewService_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	if got := svc.ListTypes(); !slices.Equal(got, DefaultTypes) {
		t.Errorf("ListTypes() = %v, want %v", got, DefaultTypes)
	}
	if got := svc.ListEvents(EventFilter{}); len(got) != 0 {
		t.Errorf("ListEvents() = %v, want empty", got)
	}
}

func TestNewService_ResumesIDs(t *testing.T) {
	store := &memPersister{initial: State{
		Events: []Event{{ID: 3, Date: "2024-01-01", Type: "결혼", Person: "a"}, {ID: 9, Date: "2024-01-02", Type: "결혼", Person: "b"}},
		Types:  []string{"결혼"},
	}}
	svc := NewService(context.Background(), store, ServiceOptions{})

	ev := mustCreate(t, svc, "2024-02-01", "결혼", "c")
	if ev.ID != 10 {
		t.Errorf("new id = %d, want 10", ev.ID)
	}
}

func TestCreateEvent(t *testing.T) {
	svc, store := newTestService(t)

	ev, err := svc.CreateEvent(context.Background(), EventInput{
		Date:   "2024-05-01",
		Type:   "결혼",
		Person: "  홍길동 ",
		Amount: "50",
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	if ev.ID != 1 {
		t.Errorf("ID = %d, want 1", ev.ID)
	}
	if ev.Person != "홍길동" {
		t.Errorf("Person = %q, want trimmed", ev.Person)
	}
	if ev.Amount == nil || *ev.Amount != "50" {
		t.Errorf("Amount = %v, want \"50\"", ev.Amount)
	}
	if ev.Notes != "" {
		t.Errorf("Notes = %q, want empty", ev.Notes)
	}

	if got := store.last(); len(got.Events) != 1 || got.Events[0].ID != 1 {
		t.Errorf("persisted events = %+v, want the new event", got.Events)
	}
}

func TestCreateEvent_BlankAmountIsNull(t *testing.T) {
	svc, _ := newTestService(t)

	ev, err := svc.CreateEvent(context.Background(), EventInput{Date: "2024-05-01", Type: "결혼", Person: "a", Amount: "  "})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if ev.Amount != nil {
		t.Errorf("Amount = %q, want nil", *ev.Amount)
	}

	data, _ := json.Marshal(ev)
	var m map[string]any
	json.Unmarshal(data, &m)
	if v, ok := m["amount"]; !ok || v != nil {
		t.Errorf("amount JSON = %v (present %v), want null", v, ok)
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreateEvent(context.Background(), EventInput{Date: "2024-05-01", Type: "결혼"})
	if !IsValidation(err) {
		t.Fatalf("CreateEvent() error = %v, want validation error", err)
	}
	if store.saves() != 0 {
		t.Errorf("saves = %d, want 0 after rejected input", store.saves())
	}

	// a rejected create does not consume an id
	if ev := mustCreate(t, svc, "2024-05-01", "결혼", "a"); ev.ID != 1 {
		t.Errorf("ID = %d, want 1", ev.ID)
	}
}

func TestIDsAreMonotonic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "2024-01-01", "결혼", "a")
	b := mustCreate(t, svc, "2024-01-02", "결혼", "b")
	if err := svc.DeleteEvent(ctx, b.ID); err != nil {
		t.Fatalf("DeleteEvent() error = %v", err)
	}
	c := mustCreate(t, svc, "2024-01-03", "결혼", "c")

	if !(a.ID < b.ID && b.ID < c.ID) {
		t.Errorf("ids %d, %d, %d are not strictly increasing", a.ID, b.ID, c.ID)
	}
}

func TestDeleteAllEvents_ResetsCounter(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "2024-01-01", "결혼", "a")
	mustCreate(t, svc, "2024-01-02", "결혼", "b")

	if n := svc.DeleteAllEvents(ctx); n != 2 {
		t.Errorf("DeleteAllEvents() = %d, want 2", n)
	}
	if got := store.last(); len(got.Events) != 0 || got.NextID != 1 {
		t.Errorf("persisted state = %+v, want empty with next id 1", got)
	}

	if ev := mustCreate(t, svc, "2024-01-03", "결혼", "c"); ev.ID != 1 {
		t.Errorf("ID after delete-all = %d, want 1", ev.ID)
	}
}

func TestDeleteEvent_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.DeleteEvent(context.Background(), 42); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("DeleteEvent() error = %v, want ErrEventNotFound", err)
	}
}

func TestListEvents_Filters(t *testing.T) {
	svc, _ := newTestService(t)

	mustCreate(t, svc, "2024-01-01", "결혼", "Kim Minsu")
	mustCreate(t, svc, "2024-01-02", "장례", "kim jiyoung")
	mustCreate(t, svc, "2024-01-03", "결혼", "Lee")

	tests := []struct {
		name    string
		filter  EventFilter
		wantIDs []int
	}{
		{"no filter", EventFilter{}, []int{3, 2, 1}},
		{"type", EventFilter{Type: "결혼"}, []int{3, 1}},
		{"person case-insensitive", EventFilter{Person: "KIM"}, []int{2, 1}},
		{"both", EventFilter{Type: "결혼", Person: "kim"}, []int{1}},
		{"type is exact", EventFilter{Type: "결"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, ev := range svc.ListEvents(tt.filter) {
				got = append(got, ev.ID)
			}
			if !slices.Equal(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestListEvents_SortedByDateDesc(t *testing.T) {
	svc, _ := newTestService(t)

	mustCreate(t, svc, "2023-12-31", "결혼", "a")
	mustCreate(t, svc, "언젠가", "결혼", "b")
	mustCreate(t, svc, "2024-03-01", "결혼", "c")
	mustCreate(t, svc, "2024/1/15", "결혼", "d")

	got := svc.ListEvents(EventFilter{})
	var dates []string
	for _, ev := range got {
		dates = append(dates, ev.Date)
	}
	want := []string{"2024-03-01", "2024/1/15", "2023-12-31", "언젠가"}
	if !slices.Equal(dates, want) {
		t.Errorf("dates = %v, want %v", dates, want)
	}
}

func TestTypeRegistryScenario(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "2024-01-01", "장례", "a")

	types, err := svc.AddType(ctx, "칠순")
	if err != nil {
		t.Fatalf("AddType() error = %v", err)
	}
	if want := []string{"결혼", "장례", "칠순"}; !slices.Equal(types, want) {
		t.Errorf("after add = %v, want %v", types, want)
	}

	types, err = svc.RemoveType(ctx, "장례")
	if err != nil {
		t.Fatalf("RemoveType() error = %v", err)
	}
	if want := []string{"결혼", "칠순"}; !slices.Equal(types, want) {
		t.Errorf("after remove = %v, want %v", types, want)
	}

	if got := svc.ListEvents(EventFilter{Type: "장례"}); len(got) != 1 {
		t.Errorf("events of removed type = %d, want 1", len(got))
	}
	if got := store.last().Types; !slices.Equal(got, []string{"결혼", "칠순"}) {
		t.Errorf("persisted types = %v", got)
	}
}

func TestAddType_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddType(ctx, "   "); !errors.Is(err, ErrTypeNameRequired) {
		t.Errorf("AddType(blank) error = %v, want ErrTypeNameRequired", err)
	}
	if _, err := svc.AddType(ctx, " 결혼 "); !errors.Is(err, ErrDuplicateType) {
		t.Errorf("AddType(duplicate) error = %v, want ErrDuplicateType", err)
	}
	if _, err := svc.RemoveType(ctx, "칠순"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("RemoveType(missing) error = %v, want ErrTypeNotFound", err)
	}
}

func TestPersistFailureIsNotSurfaced(t *testing.T) {
	svc, store := newTestService(t)
	store.saveErr = errors.New("disk full")

	ev, err := svc.CreateEvent(context.Background(), EventInput{Date: "2024-01-01", Type: "결혼", Person: "a"})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v, want nil despite save failure", err)
	}
	if got := svc.ListEvents(EventFilter{}); len(got) != 1 || got[0].ID != ev.ID {
		t.Errorf("in-memory events = %+v, want the new event", got)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "2024-01-01", "결혼", "a")

	snap, name := svc.Export()

	if name != "event_manager_backup_2024-06-01.json" {
		t.Errorf("file name = %q", name)
	}
	if snap.LastExported != "2024-06-01T12:30:00.000Z" {
		t.Errorf("LastExported = %q", snap.LastExported)
	}
	if len(snap.Events) != 1 || !slices.Equal(snap.Types, DefaultTypes) {
		t.Errorf("snapshot = %+v", snap)
	}

	data, err := snap.MarshalIndented()
	if err != nil {
		t.Fatalf("MarshalIndented() error = %v", err)
	}
	if !json.Valid(data) || data[0] != '{' || data[1] != '\n' || data[2] != ' ' || data[3] != ' ' || data[4] != '"' {
		t.Errorf("MarshalIndented() is not 2-space indented JSON: %q", data[:10])
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "2024-01-01", "결혼", "a")
	mustCreate(t, svc, "2024-02-01", "장례", "b")
	svc.AddType(ctx, "돌잔치")

	snap, _ := svc.Export()
	data, err := snap.MarshalIndented()
	if err != nil {
		t.Fatalf("MarshalIndented() error = %v", err)
	}

	other, _ := newTestService(t)
	res, err := other.ImportSnapshot(ctx, data)
	if err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	if res.Events != 2 || res.Types != 3 {
		t.Errorf("result = %+v, want 2 events, 3 types", res)
	}

	if got := other.ListTypes(); !slices.Equal(got, snap.Types) {
		t.Errorf("types = %v, want %v", got, snap.Types)
	}

	strip := func(evs []Event) []Event {
		out := make([]Event, len(evs))
		for i, ev := range evs {
			ev.ID = 0
			out[i] = ev
		}
		return out
	}
	got, want := strip(other.ListEvents(EventFilter{})), strip(svc.ListEvents(EventFilter{}))
	if len(got) != len(want) {
		t.Fatalf("events = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Date != want[i].Date || got[i].Type != want[i].Type || got[i].Person != want[i].Person {
			t.Errorf("event[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestImportSnapshot_ReassignsIDsFromRunningCounter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "2024-01-01", "결혼", "a")
	mustCreate(t, svc, "2024-01-02", "결혼", "b")

	doc := `{"events":[{"id":1,"date":"2020-01-01","type":"x","person":"p","amount":30000,"notes":"n"},{"id":1,"date":"2020-01-02","type":"x","person":"q"}],"types":["x","x"]}`
	if _, err := svc.ImportSnapshot(ctx, []byte(doc)); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	st := svc.State()
	if len(st.Events) != 2 || st.Events[0].ID != 3 || st.Events[1].ID != 4 {
		t.Errorf("ids = %+v, want 3 and 4", st.Events)
	}
	if st.Events[0].Amount == nil || *st.Events[0].Amount != "30000" {
		t.Errorf("amount = %v, want \"30000\"", st.Events[0].Amount)
	}
	if st.Events[1].Amount != nil {
		t.Errorf("missing amount = %q, want nil", *st.Events[1].Amount)
	}
	// types are taken verbatim
	if !slices.Equal(st.Types, []string{"x", "x"}) {
		t.Errorf("types = %v, want [x x]", st.Types)
	}
}

func TestImportSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{events:`, ErrImportFailed},
		{"missing types", `{"events":[]}`, ErrInvalidSnapshot},
		{"events not array", `{"events":{},"types":[]}`, ErrInvalidSnapshot},
		{"top-level array", `[]`, ErrInvalidSnapshot},
		{"null", `null`, ErrInvalidSnapshot},
		{"type not string", `{"events":[],"types":[1]}`, ErrInvalidSnapshot},
		{"event date not string", `{"events":[{"date":5}],"types":[]}`, ErrInvalidSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			mustCreate(t, svc, "2024-01-01", "결혼", "keep")
			before := store.saves()

			_, err := svc.ImportSnapshot(context.Background(), []byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Fatalf("ImportSnapshot() error = %v, want %v", err, tt.want)
			}
			if store.saves() != before {
				t.Error("rejected snapshot was persisted")
			}
			if got := svc.ListEvents(EventFilter{}); len(got) != 1 {
				t.Errorf("events = %d, want the original 1", len(got))
			}
		})
	}
}

func TestImport_Busy(t *testing.T) {
	svc, _ := newTestService(t)

	if !svc.Limiter().TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer svc.Limiter().Release()

	_, err := svc.ImportSnapshot(context.Background(), []byte(`{"events":[],"types":[]}`))
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("ImportSnapshot() error = %v, want ErrTooManyImports", err)
	}
}

func TestConcurrentCreates(t *testing.T) {
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.CreateEvent(context.Background(), EventInput{Date: "2024-01-01", Type: "결혼", Person: "p"})
		}()
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, ev := range svc.ListEvents(EventFilter{}) {
		if seen[ev.ID] {
			t.Errorf("duplicate id %d", ev.ID)
		}
		seen[ev.ID] = true
	}
	if len(seen) != 20 {
		t.Errorf("events = %d, want 20", len(seen))
	}
}
