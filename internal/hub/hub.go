// ABOUTME: In-memory fan-out event hub for connected observers
// ABOUTME: Publishes session lifecycle events to all subscribers plus catalog snapshots

package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kirimwa/kirim-gateway/internal/store"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Event names pushed over the realtime channel.
const (
	EventQR            = "qr"
	EventMessage       = "message"
	EventAuthenticated = "authenticated"
	EventReady         = "ready"
	EventRemoveSession = "remove-session"
	EventInit          = "init"
)

// Event is one realtime-channel frame: a name and a JSON-encodable payload.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"data"`
}

// StatusPayload is the payload for qr/message/ready/authenticated events.
type StatusPayload struct {
	ID   string `json:"id"`
	Src  string `json:"src,omitempty"`
	Text string `json:"text,omitempty"`
}

// Catalog loads the persisted session collection for snapshots.
type Catalog interface {
	Load(ctx context.Context) ([]store.SessionRecord, error)
}

// Hub provides in-memory pub/sub for session lifecycle events. Every
// subscriber receives every published event; there is no replay log and
// no delivery guarantee beyond currently connected subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	catalog     Catalog
	logger      *slog.Logger
}

// New creates a hub over the given catalog. Pass nil logger for default.
func New(catalog Catalog, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]chan Event),
		catalog:     catalog,
		logger:      logger.With("component", "hub"),
	}
}

// Subscribe registers an observer. Returns a channel that receives events
// and a subscription ID for later unsubscription. The subscription is
// automatically cleaned up when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	h.subscribers[subID] = ch
	h.mu.Unlock()

	h.logger.Debug("observer subscribed", "sub_id", subID)

	go func() {
		<-ctx.Done()
		h.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an event to every subscriber. Non-blocking: events are
// dropped for subscribers whose channels are full.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	targets := make([]chan Event, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			h.logger.Debug("dropped event for slow observer", "event", event.Name)
		}
	}
}

// Snapshot returns the persisted session catalog with every record's
// Ready forced to false. Readiness is a live worker property; a freshly
// connected observer must not see a stale ready=true, and the true state
// is re-announced as each worker reaches ready again.
func (h *Hub) Snapshot(ctx context.Context) ([]store.SessionRecord, error) {
	records, err := h.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Ready = false
	}
	return records, nil
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, exists := h.subscribers[subID]
	if !exists {
		return
	}

	delete(h.subscribers, subID)
	close(ch)

	h.logger.Debug("observer unsubscribed", "sub_id", subID)
}

// Close shuts down the hub and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subID, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, subID)
	}

	h.logger.Debug("hub closed")
}
