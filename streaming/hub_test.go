package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"novaperp/core/events"
)

func TestHubSubscribeReplaysBacklog(t *testing.T) {
	hub := NewHub()
	hub.Emit(events.OrderRecord{OrderId: 1, MarketIndex: 0})
	hub.Emit(events.OrderRecord{OrderId: 2, MarketIndex: 0})

	updates, cancel, backlog := hub.Subscribe("")
	defer cancel()

	require.Len(t, backlog, 2)
	require.Equal(t, uint64(1), backlog[0].Sequence)
	require.Equal(t, uint64(2), backlog[1].Sequence)
	require.Equal(t, events.TypeOrderRecord, backlog[0].Type)

	select {
	case <-updates:
		t.Fatal("no live update expected before a fresh Emit")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestHubSubscribeCursorSkipsSeen(t *testing.T) {
	hub := NewHub()
	hub.Emit(events.OrderRecord{OrderId: 1})
	hub.Emit(events.OrderRecord{OrderId: 2})

	_, cancel, backlog := hub.Subscribe("1")
	defer cancel()
	require.Len(t, backlog, 1)
	require.Equal(t, uint64(2), backlog[0].Sequence)
}

func TestHubEmitDeliversToLiveSubscribers(t *testing.T) {
	hub := NewHub()
	updates, cancel, _ := hub.Subscribe("")
	defer cancel()

	hub.Emit(events.OrderRecord{OrderId: 7})

	select {
	case u := <-updates:
		require.Equal(t, events.TypeOrderRecord, u.Type)
		require.Equal(t, "7", u.Attributes["orderId"])
	case <-time.After(time.Second):
		t.Fatal("expected a live update")
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	updates, cancel, _ := hub.Subscribe("")
	cancel()

	_, ok := <-updates
	require.False(t, ok, "channel should be closed after cancel")
}
