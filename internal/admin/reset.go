// Package admin implements the ledgerctl maintenance commands.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/eventledger/internal/core"
)

// ResetTimeout is the maximum duration for a reset, persistence included.
const ResetTimeout = 30 * time.Second

// ErrNotConfirmed is returned when a destructive command lacks --yes.
var ErrNotConfirmed = errors.New("refusing to delete every event without --yes")

// Reset deletes every event and restarts ids at 1. Types are kept.
// This is a destructive operation - use with caution.
func Reset(ctx context.Context, svc *core.Service, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}

	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	return svc.DeleteAllEvents(ctx), nil
}
