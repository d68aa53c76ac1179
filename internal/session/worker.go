// ABOUTME: Worker owns one platform client and translates its lifecycle into hub events.
// ABOUTME: Serializes all outbound sends through a per-worker mutex.

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kirimwa/kirim-gateway/internal/hub"
	"github.com/kirimwa/kirim-gateway/internal/platform"
)

const pingReply = "Pong!"

// Worker wraps a single platform client. All sends for a session go
// through the same worker so the underlying client never sees
// concurrent calls.
type Worker struct {
	ID          string
	Description string

	client   platform.Client
	sendMu   sync.Mutex
	registry *Registry
	logger   *slog.Logger
}

func newWorker(id, description string, client platform.Client, registry *Registry, logger *slog.Logger) *Worker {
	return &Worker{
		ID:          id,
		Description: description,
		client:      client,
		registry:    registry,
		logger:      logger,
	}
}

// IsRegistered reports whether the address can receive messages.
func (w *Worker) IsRegistered(ctx context.Context, addr string) (bool, error) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.client.IsRegistered(ctx, addr)
}

// SendText delivers a text message through the session's client.
func (w *Worker) SendText(ctx context.Context, addr, text string) (platform.Receipt, error) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.client.SendText(ctx, addr, text)
}

// SendMedia delivers a media attachment with an optional caption.
func (w *Worker) SendMedia(ctx context.Context, addr string, media platform.Media, caption string) (platform.Receipt, error) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	return w.client.SendMedia(ctx, addr, media, caption)
}

// run consumes the client's event stream until it closes. Lifecycle
// transitions are mirrored onto the hub as both dedicated events and
// human-readable status messages.
func (w *Worker) run(ctx context.Context) {
	for ev := range w.client.Events() {
		switch ev.Kind {
		case platform.EventQR:
			w.handleQR(ev.Payload)

		case platform.EventAuthenticated:
			w.logger.Info("session authenticated")
			w.publish(hub.EventAuthenticated, hub.StatusPayload{ID: w.ID})
			w.publishStatus("Session is authenticated!")

		case platform.EventReady:
			w.logger.Info("session ready")
			w.registry.markReady(ctx, w.ID, w.Description)
			w.publish(hub.EventReady, hub.StatusPayload{ID: w.ID})
			w.publishStatus("Session is ready!")

		case platform.EventAuthFailure:
			w.logger.Warn("session auth failure", "detail", ev.Payload)
			w.publishStatus("Auth failure, restarting...")

		case platform.EventDisconnected:
			w.logger.Warn("session disconnected", "reason", ev.Payload)
			w.publishStatus("Session disconnected!")
			w.registry.recycle(w)
			return

		case platform.EventMessage:
			w.handleMessage(ctx, ev)
		}
	}
}

// handleQR renders the pairing payload as a PNG data URL so browser
// clients can display it with a plain <img> tag.
func (w *Worker) handleQR(payload string) {
	w.logger.Info("qr code received")

	src, err := encodeQRDataURL(payload)
	if err != nil {
		w.logger.Error("failed to encode qr code", "error", err)
		return
	}

	w.publish(hub.EventQR, hub.StatusPayload{ID: w.ID, Src: src})
	w.publishStatus("QR code received, scan please!")
}

// handleMessage answers the ping probe; other inbound traffic is only
// logged.
func (w *Worker) handleMessage(ctx context.Context, ev platform.Event) {
	w.logger.Debug("message received", "from", ev.Sender)

	if ev.Payload != "!ping" {
		return
	}
	if _, err := w.SendText(ctx, ev.Sender, pingReply); err != nil {
		w.logger.Error("failed to answer ping", "error", err)
	}
}

func (w *Worker) publish(name string, payload hub.StatusPayload) {
	w.registry.hub.Publish(hub.Event{Name: name, Payload: payload})
}

func (w *Worker) publishStatus(text string) {
	w.registry.hub.Publish(hub.Event{Name: hub.EventMessage, Payload: hub.StatusPayload{ID: w.ID, Text: text}})
}
