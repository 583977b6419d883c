package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to a user message and HTTP status
//  4. Technical error + context is logged with the request ID for correlation
//  5. User message is written as JSON

import (
	"net/http"

	"github.com/JonMunkholm/eventledger/internal/core"
	"github.com/JonMunkholm/eventledger/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err server-side and writes its user message with the
// status chosen by core.MapError.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", userMsg.Status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if userMsg.Status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeJSON(w, userMsg.Status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
