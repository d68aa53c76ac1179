// ABOUTME: Tests for the sandbox platform driver
// ABOUTME: Covers the scripted lifecycle and registration rules

package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectKinds drains n events from the sandbox or fails after a timeout.
func collectKinds(t *testing.T, events <-chan Event, n int) []EventKind {
	t.Helper()
	kinds := make([]EventKind, 0, n)
	for len(kinds) < n {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed early")
			kinds = append(kinds, ev.Kind)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d events", len(kinds))
		}
	}
	return kinds
}

func TestSandbox_LifecycleSequence(t *testing.T) {
	s := NewSandbox("office")
	s.pairDelay = time.Millisecond
	defer s.Close()

	require.NoError(t, s.Initialize(context.Background()))

	kinds := collectKinds(t, s.Events(), 3)
	assert.Equal(t, []EventKind{EventQR, EventAuthenticated, EventReady}, kinds)
}

func TestSandbox_QRChallengeNamesSession(t *testing.T) {
	s := NewSandbox("office")
	s.pairDelay = time.Millisecond
	defer s.Close()

	require.NoError(t, s.Initialize(context.Background()))

	select {
	case ev := <-s.Events():
		assert.Equal(t, EventQR, ev.Kind)
		assert.Contains(t, ev.Payload, "office")
	case <-time.After(5 * time.Second):
		t.Fatal("no QR event")
	}
}

func TestSandbox_RegistrationRule(t *testing.T) {
	s := NewSandbox("office")
	defer s.Close()
	ctx := context.Background()

	ok, err := s.IsRegistered(ctx, "628123456789@c.us")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsRegistered(ctx, "628120000@c.us")
	require.NoError(t, err)
	assert.False(t, ok, "subscriber digits ending 0000 are unregistered")
}

func TestSandbox_SendAfterClose(t *testing.T) {
	s := NewSandbox("office")
	require.NoError(t, s.Close())

	_, err := s.SendText(context.Background(), "628123@c.us", "hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSandbox_CloseIdempotent(t *testing.T) {
	s := NewSandbox("office")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
