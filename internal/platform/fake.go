// ABOUTME: Scripted fake Client for tests
// ABOUTME: Records calls and lets tests drive lifecycle events by hand

package platform

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient is a Client test double. Tests drive lifecycle events with
// Emit and script per-address registration and send failures.
type FakeClient struct {
	SessionID string

	mu     sync.Mutex
	closed bool
	events chan Event

	// Unregistered lists addresses IsRegistered reports false for.
	Unregistered map[string]bool

	// CheckErr, when set, is returned by every IsRegistered call.
	CheckErr error

	// SendErrs maps an address to the error its sends fail with.
	SendErrs map[string]error

	// Recorded calls.
	TextSends   []FakeSend
	MediaSends  []FakeSend
	Initialized int
	Closed      int
}

// FakeSend records one outbound send.
type FakeSend struct {
	Addr    string
	Text    string
	Caption string
	Mime    string
}

// NewFakeClient creates a fake client for the given session id.
func NewFakeClient(sessionID string) *FakeClient {
	return &FakeClient{
		SessionID:    sessionID,
		events:       make(chan Event, 32),
		Unregistered: map[string]bool{},
		SendErrs:     map[string]error{},
	}
}

// Initialize records the call; the fake emits nothing on its own.
func (f *FakeClient) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Initialized++
	return nil
}

// IsRegistered consults the scripted Unregistered set.
func (f *FakeClient) IsRegistered(ctx context.Context, addr string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CheckErr != nil {
		return false, f.CheckErr
	}
	return !f.Unregistered[addr], nil
}

// SendText records the send and returns the scripted outcome.
func (f *FakeClient) SendText(ctx context.Context, addr, text string) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SendErrs[addr]; err != nil {
		return Receipt{}, err
	}
	f.TextSends = append(f.TextSends, FakeSend{Addr: addr, Text: text})
	return Receipt{MessageID: fmt.Sprintf("fake-%d", len(f.TextSends)), Recipient: addr}, nil
}

// SendMedia records the send and returns the scripted outcome.
func (f *FakeClient) SendMedia(ctx context.Context, addr string, media Media, caption string) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SendErrs[addr]; err != nil {
		return Receipt{}, err
	}
	f.MediaSends = append(f.MediaSends, FakeSend{Addr: addr, Caption: caption, Mime: media.MimeType})
	return Receipt{MessageID: fmt.Sprintf("fake-media-%d", len(f.MediaSends)), Recipient: addr}, nil
}

// Emit delivers a lifecycle event to the consumer. Blocks until the
// worker picks it up or the buffer accepts it.
func (f *FakeClient) Emit(ev Event) {
	f.events <- ev
}

// Events returns the event stream.
func (f *FakeClient) Events() <-chan Event {
	return f.events
}

// Close closes the event stream.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	f.Closed++
	close(f.events)
	return nil
}

// SendCount returns the total number of recorded sends.
func (f *FakeClient) SendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TextSends) + len(f.MediaSends)
}
