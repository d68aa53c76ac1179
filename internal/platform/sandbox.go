// ABOUTME: Sandbox platform driver with a scripted authentication flow
// ABOUTME: Stands in for a real engine during development and e2e exercises

package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sandboxEventBuffer = 16

// Sandbox is an in-process Client that walks the full lifecycle without a
// real platform engine: Initialize emits a pairing challenge, then
// authenticated and ready after short delays. Addresses whose subscriber
// digits end in "0000" are treated as unregistered, so eligibility
// failures can be exercised end to end.
type Sandbox struct {
	sessionID string
	pairDelay time.Duration

	mu     sync.Mutex
	closed bool
	events chan Event
}

// NewSandbox creates a sandbox client for the given session id.
func NewSandbox(sessionID string) *Sandbox {
	return &Sandbox{
		sessionID: sessionID,
		pairDelay: 200 * time.Millisecond,
		events:    make(chan Event, sandboxEventBuffer),
	}
}

// SandboxFactory is a Factory producing sandbox clients.
func SandboxFactory(sessionID string) (Client, error) {
	return NewSandbox(sessionID), nil
}

// Initialize starts the scripted pairing flow.
func (s *Sandbox) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.mu.Unlock()

	go s.run()
	return nil
}

// run emits the scripted lifecycle sequence.
func (s *Sandbox) run() {
	challenge := fmt.Sprintf("sandbox-pair:%s:%s", s.sessionID, uuid.New().String())
	s.emit(Event{Kind: EventQR, Payload: challenge})

	time.Sleep(s.pairDelay)
	s.emit(Event{Kind: EventAuthenticated})

	time.Sleep(s.pairDelay)
	s.emit(Event{Kind: EventReady})
}

// emit delivers an event unless the client has been closed.
func (s *Sandbox) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Buffer full; sandbox drops rather than blocking the script.
	}
}

// IsRegistered reports the scripted registration state of addr.
func (s *Sandbox) IsRegistered(ctx context.Context, addr string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	digits := addr
	if i := strings.IndexByte(addr, '@'); i >= 0 {
		digits = addr[:i]
	}
	return !strings.HasSuffix(digits, "0000"), nil
}

// SendText accepts any text message and returns a receipt.
func (s *Sandbox) SendText(ctx context.Context, addr, text string) (Receipt, error) {
	return s.accept(ctx, addr)
}

// SendMedia accepts any attachment and returns a receipt.
func (s *Sandbox) SendMedia(ctx context.Context, addr string, media Media, caption string) (Receipt, error) {
	return s.accept(ctx, addr)
}

func (s *Sandbox) accept(ctx context.Context, addr string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Receipt{}, ErrNotConnected
	}
	return Receipt{
		MessageID: uuid.New().String(),
		Recipient: addr,
		Timestamp: time.Now().Unix(),
	}, nil
}

// Events returns the lifecycle event stream.
func (s *Sandbox) Events() <-chan Event {
	return s.events
}

// Close tears the sandbox down and closes the event stream.
func (s *Sandbox) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}
