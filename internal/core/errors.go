package core

import (
	"errors"
	"fmt"
	"strings"
)

// Event errors.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrInvalidEventID = errors.New("invalid event id")
)

// Type registry errors.
var (
	ErrDuplicateType    = errors.New("duplicate type")
	ErrTypeNameRequired = errors.New("type name required")
	ErrTypeNotFound     = errors.New("type not found")
)

// Import errors. ErrNoDataRows, ErrInvalidSnapshot, ErrNoFile and
// ErrUnsupportedFormat are structural problems with the upload; ErrImportFailed
// means the payload could not be read at all.
var (
	ErrNoDataRows        = errors.New("spreadsheet has no header or data rows")
	ErrInvalidSnapshot   = errors.New("invalid snapshot: events and types arrays are required")
	ErrImportFailed      = errors.New("import failed")
	ErrNoFile            = errors.New("no file provided")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
)

// ValidationError reports required event fields that were missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", strings.Join(e.Fields, ", "))
}

// MissingColumnsError reports required spreadsheet headers that were absent.
// Columns holds the canonical header labels.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
