package core

import (
	"context"
	"slices"
	"strings"

	"github.com/JonMunkholm/eventledger/internal/logging"
)

// ListTypes returns the type-tags in insertion order.
func (s *Service) ListTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.types)
}

// AddType appends a type-tag and returns the updated list.
func (s *Service) AddType(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTypeNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.types, name) {
		return nil, &TypeNameError{Name: name, Err: ErrDuplicateType}
	}

	s.types = append(s.types, name)
	s.persistLocked(ctx)

	logging.FromContext(ctx).Info("type added", "type", name)
	return slices.Clone(s.types), nil
}

// RemoveType deletes a type-tag and returns the updated list. Events using
// the tag keep it.
func (s *Service) RemoveType(ctx context.Context, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.Index(s.types, name)
	if i < 0 {
		return nil, &TypeNameError{Name: name, Err: ErrTypeNotFound}
	}

	s.types = slices.Delete(s.types, i, i+1)
	s.persistLocked(ctx)

	logging.FromContext(ctx).Info("type removed", "type", name)
	return slices.Clone(s.types), nil
}
