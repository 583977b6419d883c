package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/eventledger/internal/core"
)

// withRequestMetadata adds the client IP to the context for import logs.
func withRequestMetadata(r *http.Request) context.Context {
	return core.ContextWithClientIP(r.Context(), clientIP(r))
}
