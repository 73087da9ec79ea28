// Package store is the data access layer. It wraps a *gorm.DB and exposes typed
// queries for every table the API touches, so handlers never build SQL themselves.
//
// Every query takes a context and returns one of the sentinel errors below (wrapped)
// when the failure is something a caller should react to.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition means a tournament status change is not allowed, or a write
	// was attempted on a tournament whose status does not accept it.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict means a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput means the request was well-formed but its content is not acceptable
	// (a hole from another course, a non-positive stroke count, ...).
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the GORM-backed data store.
type Store struct {
	db *gorm.DB
}

// New wraps db. The handle should be opened with TranslateError enabled so unique
// violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks and migrations.
func (s *Store) DB() *gorm.DB { return s.db }

// translate maps GORM errors onto the package sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// parseID turns an id from a URL or token into a uuid. A malformed id can never
// match a row, so it is reported as not found.
func parseID(id, what string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	return parsed, nil
}
