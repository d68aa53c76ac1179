// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without disk or SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	records []SessionRecord

	// SaveErr, when set, is returned by every Save call. Used to test
	// that persistence failures are non-fatal to request paths.
	SaveErr error

	// SaveCalls counts Save invocations.
	SaveCalls int
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{records: []SessionRecord{}}
}

// Load returns a copy of the current catalog.
func (m *MockStore) Load(ctx context.Context) ([]SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SessionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Save replaces the catalog with a copy of records.
func (m *MockStore) Save(ctx context.Context, records []SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}

	m.records = make([]SessionRecord, len(records))
	copy(m.records, records)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Seed replaces the catalog without counting as a Save. Test setup helper.
func (m *MockStore) Seed(records []SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make([]SessionRecord, len(records))
	copy(m.records, records)
}
