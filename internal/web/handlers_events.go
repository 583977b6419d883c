package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/eventledger/internal/core"
)

// eventResponse is returned when an event is created.
type eventResponse struct {
	Message string     `json:"message"`
	Event   core.Event `json:"event"`
}

// handleListEvents returns events filtered by ?searchType (exact type) and
// ?searchInput (case-insensitive substring of the person), newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events := s.service.ListEvents(core.EventFilter{
		Type:   q.Get("searchType"),
		Person: q.Get("searchInput"),
	})
	writeJSON(w, http.StatusOK, events)
}

// handleCreateEvent stores a new event from the JSON body.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in core.EventInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	ev, err := s.service.CreateEvent(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, eventResponse{
		Message: "새로운 내역이 추가되었습니다.",
		Event:   ev,
	})
}

// handleDeleteEvent removes the event with the id in the path.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %q", core.ErrInvalidEventID, raw))
		return
	}

	if err := s.service.DeleteEvent(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "선택한 내역이 삭제되었습니다."})
}

// handleDeleteAllEvents clears the ledger.
func (s *Server) handleDeleteAllEvents(w http.ResponseWriter, r *http.Request) {
	s.service.DeleteAllEvents(r.Context())
	writeJSON(w, http.StatusOK, messageResponse{Message: "모든 내역이 삭제되었습니다."})
}
