// ABOUTME: JSON file implementation of the Store interface
// ABOUTME: Rewrites the whole catalog atomically on every save

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists the session catalog as a single JSON document.
// Every Save rewrites the file in full via a temp-file rename, so a
// crash mid-write never leaves a truncated catalog behind.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a file store at the given path. Parent directories
// are created if needed, and an empty catalog is written if the file does
// not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &FileStore{
		path:   path,
		logger: logger,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.write([]SessionRecord{}); err != nil {
			return nil, fmt.Errorf("initializing sessions file: %w", err)
		}
		logger.Info("sessions file created", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("checking sessions file: %w", err)
	}

	logger.Info("file store initialized", "path", path)
	return s, nil
}

// Load reads the full session catalog from disk.
func (s *FileStore) Load(ctx context.Context) ([]SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading sessions file: %w", err)
	}

	var records []SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing sessions file: %w", err)
	}
	if records == nil {
		records = []SessionRecord{}
	}
	return records, nil
}

// Save rewrites the full session catalog to disk.
func (s *FileStore) Save(ctx context.Context, records []SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []SessionRecord{}
	}
	return s.write(records)
}

// write marshals records and replaces the catalog file atomically.
func (s *FileStore) write(records []SessionRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing sessions file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing sessions file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
