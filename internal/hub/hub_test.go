// ABOUTME: Tests for the observer event hub
// ABOUTME: Covers fan-out, slow-subscriber drops, snapshot readiness, and cleanup

package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirimwa/kirim-gateway/internal/store"
)

// recv reads one event or fails after a timeout.
func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_FanOutToAllSubscribers(t *testing.T) {
	h := New(store.NewMockStore(), nil)
	defer h.Close()
	ctx := context.Background()

	ch1, _ := h.Subscribe(ctx)
	ch2, _ := h.Subscribe(ctx)

	h.Publish(Event{Name: EventReady, Payload: StatusPayload{ID: "office"}})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := recv(t, ch)
		assert.Equal(t, EventReady, ev.Name)
		assert.Equal(t, StatusPayload{ID: "office"}, ev.Payload)
	}
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	h := New(store.NewMockStore(), nil)
	defer h.Close()

	ch, _ := h.Subscribe(context.Background())

	// Overfill the subscriber buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBufferSize+10; i++ {
			h.Publish(Event{Name: EventMessage})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The buffer holds at most subscriberBufferSize events.
	assert.Len(t, ch, subscriberBufferSize)
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := New(store.NewMockStore(), nil)
	defer h.Close()

	ch, subID := h.Subscribe(context.Background())
	h.Unsubscribe(subID)

	_, ok := <-ch
	assert.False(t, ok)

	// Double unsubscribe is harmless.
	h.Unsubscribe(subID)
}

func TestHub_ContextCancelUnsubscribes(t *testing.T) {
	h := New(store.NewMockStore(), nil)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := h.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func TestHub_SnapshotForcesReadyFalse(t *testing.T) {
	mockStore := store.NewMockStore()
	mockStore.Seed([]store.SessionRecord{
		{ID: "office", Description: "front desk", Ready: true},
		{ID: "support", Description: "support line", Ready: false},
	})

	h := New(mockStore, nil)
	defer h.Close()

	records, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.False(t, rec.Ready, "snapshot must never report ready=true for %s", rec.ID)
	}
	assert.Equal(t, "front desk", records[0].Description)
}

func TestHub_CloseClosesAllSubscribers(t *testing.T) {
	h := New(store.NewMockStore(), nil)

	ch1, _ := h.Subscribe(context.Background())
	ch2, _ := h.Subscribe(context.Background())

	h.Close()

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)
}
