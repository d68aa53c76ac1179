// ABOUTME: Store interface and data types for kirim-gateway session persistence
// ABOUTME: Defines SessionRecord and the Store contract for catalog operations

package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested session record does not exist.
var ErrNotFound = errors.New("not found")

// SessionRecord is the persisted metadata for one messaging session.
// Ready tracks last-known readiness only; it is reset on restart and in
// observer snapshots, since readiness is a live worker property.
type SessionRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Ready       bool   `json:"ready"`
}

// Store persists the session catalog as a single collection. Load returns
// the full collection; Save rewrites it in full. Callers serialize access
// through the session registry's control path - the store itself is not
// transactional across concurrent writers.
type Store interface {
	Load(ctx context.Context) ([]SessionRecord, error)
	Save(ctx context.Context, records []SessionRecord) error

	// Close releases any resources held by the store
	Close() error
}

// Open creates a store for the given driver ("file" or "sqlite") and path.
// The persisted collection is initialized empty if absent.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
