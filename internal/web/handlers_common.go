package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/eventledger/internal/core"
)

// messageResponse is the body of mutations that return nothing else.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequestBody, err)
	}
	return nil
}

// formFile parses a multipart upload capped at the configured size and
// returns the file in field. The caller closes the file and calls cleanup.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, func(), error) {
	maxSize := s.cfg.Upload.MaxFileSize
	if r.ContentLength > maxSize {
		return nil, nil, nil, fmt.Errorf("%w: %d bytes, limit %d", core.ErrFileTooLarge, r.ContentLength, maxSize)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, nil, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("%w: field %q", core.ErrNoFile, field)
	}
	return file, header, cleanup, nil
}

// handleHealth reports that the process is serving requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
