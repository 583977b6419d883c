package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// typesResponse is returned by type registry mutations.
type typesResponse struct {
	Message string   `json:"message"`
	Types   []string `json:"types"`
}

// handleListTypes returns the registered type-tags in order.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListTypes())
}

// handleAddType registers the type-tag in {"typeName": "..."}.
func (s *Server) handleAddType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TypeName string `json:"typeName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	types, err := s.service.AddType(r.Context(), req.TypeName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, typesResponse{
		Message: fmt.Sprintf("'%s' 구분이 추가되었습니다.", strings.TrimSpace(req.TypeName)),
		Types:   types,
	})
}

// handleRemoveType removes the URL-encoded type-tag in the path.
// Events already carrying the tag are left as they are.
func (s *Server) handleRemoveType(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "typeName")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	types, err := s.service.RemoveType(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, typesResponse{
		Message: fmt.Sprintf("'%s' 구분이 삭제되었습니다.", name),
		Types:   types,
	})
}
