// ABOUTME: Client capability boundary for the underlying messaging platform
// ABOUTME: Defines the Client interface, lifecycle Event variants, and Factory

package platform

import (
	"context"
	"errors"
)

// ErrNotConnected indicates an operation was attempted before the client
// reached its ready state, or after it was closed.
var ErrNotConnected = errors.New("client not connected")

// EventKind identifies a lifecycle or inbound event from the platform.
type EventKind int

const (
	// EventQR carries a raw pairing challenge string in Payload. The
	// challenge must be rendered before it reaches observers.
	EventQR EventKind = iota

	// EventAuthenticated signals the platform accepted the pairing.
	EventAuthenticated

	// EventReady signals the session is operational and can send.
	EventReady

	// EventAuthFailure signals the platform rejected authentication.
	// Payload holds the reason.
	EventAuthFailure

	// EventDisconnected signals the session dropped. Payload holds the
	// reason, unclassified.
	EventDisconnected

	// EventMessage is an inbound message. Sender and Payload (the text)
	// are set.
	EventMessage
)

// String returns the event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventQR:
		return "qr"
	case EventAuthenticated:
		return "authenticated"
	case EventReady:
		return "ready"
	case EventAuthFailure:
		return "auth_failure"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is one lifecycle or inbound event emitted by a Client.
type Event struct {
	Kind    EventKind
	Payload string
	Sender  string // set for EventMessage
}

// Receipt describes an accepted outbound message.
type Receipt struct {
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
	Timestamp int64  `json:"timestamp"`
}

// Media is an attachment payload for SendMedia.
type Media struct {
	Data     []byte
	MimeType string
	Filename string
}

// Client is the opaque capability exposed by the messaging platform
// engine. One Client instance backs exactly one session; instances are
// not safe for concurrent sends and callers serialize per session.
//
// Lifecycle events are delivered on the Events channel in the order the
// platform progresses. The channel is closed by Close.
type Client interface {
	// Initialize starts the engine and begins the authentication flow.
	Initialize(ctx context.Context) error

	// IsRegistered reports whether addr exists on the platform. The
	// check happens platform-side and may itself fail.
	IsRegistered(ctx context.Context, addr string) (bool, error)

	// SendText delivers a text message to addr.
	SendText(ctx context.Context, addr, text string) (Receipt, error)

	// SendMedia delivers an attachment with a caption to addr.
	SendMedia(ctx context.Context, addr string, media Media, caption string) (Receipt, error)

	// Events returns the lifecycle event stream for this client.
	Events() <-chan Event

	// Close tears down the engine and closes the event stream.
	Close() error
}

// Factory constructs a Client for a session id. The session worker calls
// it once at spawn and again when replacing a disconnected client.
type Factory func(sessionID string) (Client, error)
