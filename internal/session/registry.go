// ABOUTME: Manages live session workers, handles creation, lookup, and startup replay.
// ABOUTME: Single control path for all session catalog mutation.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kirimwa/kirim-gateway/internal/hub"
	"github.com/kirimwa/kirim-gateway/internal/platform"
	"github.com/kirimwa/kirim-gateway/internal/store"
)

// ErrSessionExists indicates a session with the same id already has a live worker.
var ErrSessionExists = errors.New("session already exists")

// ErrSessionNotFound indicates the specified session was not found.
var ErrSessionNotFound = errors.New("session not found")

// Registry coordinates all live session workers and owns every mutation
// of the persisted session catalog.
type Registry struct {
	workers map[string]*Worker
	mu      sync.RWMutex

	// storeMu serializes catalog read-modify-write cycles; worker event
	// loops and the create path mutate the catalog concurrently.
	storeMu sync.Mutex

	store   store.Store
	hub     *hub.Hub
	factory platform.Factory
	logger  *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewRegistry creates a Registry. Worker event loops run until Close.
func NewRegistry(s store.Store, h *hub.Hub, factory platform.Factory, logger *slog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		workers: make(map[string]*Worker),
		store:   s,
		hub:     h,
		factory: factory,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Create spawns a worker for the given session id and upserts its
// catalog record. Returns ErrSessionExists if a live worker already
// owns the id. The record upsert is idempotent: an existing record is
// left untouched so a replayed session keeps its description.
func (r *Registry) Create(ctx context.Context, id, description string) error {
	if id == "" {
		return fmt.Errorf("session id is required")
	}

	r.mu.Lock()
	if _, exists := r.workers[id]; exists {
		r.mu.Unlock()
		return ErrSessionExists
	}

	worker, err := r.spawn(id, description)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("spawning session %s: %w", id, err)
	}
	r.workers[id] = worker
	total := len(r.workers)
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", id, "total_sessions", total)

	r.upsertRecord(ctx, id, description)
	return nil
}

// spawn constructs a client and starts a worker loop.
func (r *Registry) spawn(id, description string) (*Worker, error) {
	client, err := r.factory(id)
	if err != nil {
		return nil, err
	}

	worker := newWorker(id, description, client, r, r.logger.With("session_id", id))
	if err := client.Initialize(r.baseCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("initializing client: %w", err)
	}
	go worker.run(r.baseCtx)
	return worker, nil
}

// Find retrieves a live worker by session id.
func (r *Registry) Find(id string) (*Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	worker, ok := r.workers[id]
	return worker, ok
}

// Remove drops a worker from the registry and closes its client.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	worker, exists := r.workers[id]
	if exists {
		delete(r.workers, id)
	}
	total := len(r.workers)
	r.mu.Unlock()

	if exists {
		_ = worker.client.Close()
		r.logger.Info("session removed", "session_id", id, "total_sessions", total)
	}
}

// List returns the ids of all live workers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.workers))
	for id := range r.workers {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Restore replays every persisted session record that has no live
// worker, spawning each as if an operator had requested it.
func (r *Registry) Restore(ctx context.Context) error {
	records, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading session catalog: %w", err)
	}

	for _, rec := range records {
		if _, ok := r.Find(rec.ID); ok {
			continue
		}
		if err := r.Create(ctx, rec.ID, rec.Description); err != nil {
			r.logger.Error("failed to restore session", "session_id", rec.ID, "error", err)
		}
	}

	r.logger.Info("session replay complete", "sessions", len(records))
	return nil
}

// Close stops all workers and their event loops.
func (r *Registry) Close() {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, worker := range r.workers {
		_ = worker.client.Close()
		delete(r.workers, id)
	}
}

// upsertRecord adds a catalog record for id if absent. Save failures are
// logged and non-fatal: the in-memory worker stays live regardless.
func (r *Registry) upsertRecord(ctx context.Context, id, description string) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	records, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("failed to load session catalog", "error", err)
		return
	}

	for _, rec := range records {
		if rec.ID == id {
			return
		}
	}

	records = append(records, store.SessionRecord{ID: id, Description: description})
	if err := r.store.Save(ctx, records); err != nil {
		r.logger.Error("failed to save session catalog", "session_id", id, "error", err)
	}
}

// markReady sets the record's ready flag, re-creating the record if the
// id is absent. Readiness is the only path that re-creates a record
// pruned by a disconnect.
func (r *Registry) markReady(ctx context.Context, id, description string) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	records, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("failed to load session catalog", "error", err)
		return
	}

	found := false
	for i := range records {
		if records[i].ID == id {
			records[i].Ready = true
			found = true
			break
		}
	}
	if !found {
		records = append(records, store.SessionRecord{ID: id, Description: description, Ready: true})
	}

	if err := r.store.Save(ctx, records); err != nil {
		r.logger.Error("failed to save session catalog", "session_id", id, "error", err)
	}
}

// pruneRecord removes the record for id from the catalog.
func (r *Registry) pruneRecord(ctx context.Context, id string) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	records, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("failed to load session catalog", "error", err)
		return
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}

	if err := r.store.Save(ctx, kept); err != nil {
		r.logger.Error("failed to save session catalog", "session_id", id, "error", err)
	}
}

// recycle handles a worker disconnect: the old worker is discarded, its
// record pruned, observers told to drop the session, and a fresh worker
// constructed under the same id as a resume attempt. The replacement
// shares nothing with the discarded client instance.
func (r *Registry) recycle(old *Worker) {
	r.mu.Lock()
	if current, ok := r.workers[old.ID]; !ok || current != old {
		// Already recycled or removed; nothing to do.
		r.mu.Unlock()
		return
	}
	delete(r.workers, old.ID)
	r.mu.Unlock()

	_ = old.client.Close()

	r.pruneRecord(r.baseCtx, old.ID)
	r.hub.Publish(hub.Event{Name: hub.EventRemoveSession, Payload: hub.StatusPayload{ID: old.ID}})

	replacement, err := r.spawn(old.ID, old.Description)
	if err != nil {
		r.logger.Error("failed to resume session after disconnect", "session_id", old.ID, "error", err)
		return
	}

	r.mu.Lock()
	if _, exists := r.workers[old.ID]; exists {
		// An operator re-created the id while we were resuming.
		r.mu.Unlock()
		_ = replacement.client.Close()
		return
	}
	r.workers[old.ID] = replacement
	r.mu.Unlock()

	r.logger.Info("session resume attempt started", "session_id", old.ID)
}
