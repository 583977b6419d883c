package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	fileExt         = ".json"
	tmpSuffix       = ".tmp"
	backupSuffix    = ".backup"
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// FileStore keeps each document in <dir>/<name>.json. A write goes to a
// temporary file that is renamed over the target; the previous version is
// kept as <name>.json.backup.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStore) Write(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(name)
	tmp := target + tmpSuffix

	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	if current, err := os.ReadFile(target); err == nil {
		// best effort; a missing backup never blocks the write
		_ = os.WriteFile(target+backupSuffix, current, filePermissions)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
