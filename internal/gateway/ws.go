// ABOUTME: Websocket observer channel for session lifecycle events.
// ABOUTME: Pushes hub events to clients and accepts create-session requests.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kirimwa/kirim-gateway/internal/hub"
	"github.com/kirimwa/kirim-gateway/internal/session"
)

// upgrader accepts any origin: the gateway is meant to sit behind an
// operator dashboard on a different host, and the API carries its own
// bearer-token auth.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// createSessionRequest is the client→server frame asking for a new
// session worker.
type createSessionRequest struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// wsFrame is one client→server message.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// handleWS upgrades the connection, sends the init snapshot, then
// mirrors hub events to the client until it disconnects. The only
// client→server event is create-session.
func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, subID := g.hub.Subscribe(ctx)
	defer g.hub.Unsubscribe(subID)

	// Gorilla connections allow one concurrent writer; the event
	// forwarder and create-session acks share writeMu.
	var writeMu sync.Mutex
	writeEvent := func(ev hub.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	if err := g.sendSnapshot(ctx, writeEvent); err != nil {
		g.logger.Error("failed to send init snapshot", "error", err)
		return
	}

	go func() {
		for ev := range events {
			if err := writeEvent(ev); err != nil {
				cancel()
				return
			}
		}
	}()

	g.readLoop(ctx, conn, writeEvent)
}

// sendSnapshot pushes the init frame: the persisted catalog with every
// ready flag forced false, so clients wait for live ready events.
func (g *Gateway) sendSnapshot(ctx context.Context, writeEvent func(hub.Event) error) error {
	records, err := g.hub.Snapshot(ctx)
	if err != nil {
		return err
	}
	return writeEvent(hub.Event{Name: hub.EventInit, Payload: records})
}

// readLoop consumes client frames until the connection drops.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, writeEvent func(hub.Event) error) {
	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		switch frame.Event {
		case "create-session":
			g.handleCreateSession(ctx, frame.Data, writeEvent)
		default:
			g.logger.Debug("unknown websocket event", "event", frame.Event)
		}
	}
}

// handleCreateSession spawns a session worker for the requested id. A
// duplicate live id is reported back as a status message rather than an
// error: dashboards re-send create-session on reconnect.
func (g *Gateway) handleCreateSession(ctx context.Context, data json.RawMessage, writeEvent func(hub.Event) error) {
	var req createSessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.logger.Warn("invalid create-session payload", "error", err)
		return
	}

	err := g.registry.Create(ctx, req.ID, req.Description)
	switch {
	case errors.Is(err, session.ErrSessionExists):
		_ = writeEvent(hub.Event{Name: hub.EventMessage, Payload: hub.StatusPayload{ID: req.ID, Text: "Session already exists!"}})
	case err != nil:
		g.logger.Error("failed to create session", "session_id", req.ID, "error", err)
		_ = writeEvent(hub.Event{Name: hub.EventMessage, Payload: hub.StatusPayload{ID: req.ID, Text: err.Error()}})
	}
}
