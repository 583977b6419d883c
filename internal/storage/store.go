// Package storage persists the ledger as two JSON documents, "events" and
// "types", on one of three backends: a directory of files, PostgreSQL or
// SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/eventledger/internal/config"
)

// Document names.
const (
	EventsDocument = "events"
	TypesDocument  = "types"
)

// ErrDocumentNotFound is returned by Read when the document was never written.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore reads and fully overwrites named JSON documents.
type DocumentStore interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Close() error
}

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (DocumentStore, error) {
	if cfg.OpenTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.OpenTimeout)
		defer cancel()
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.DataDir)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
