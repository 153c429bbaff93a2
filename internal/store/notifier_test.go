package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
		return ChangeEvent{}
	}
}

func TestNotifierDeliversToAllSubscribers(t *testing.T) {
	n := NewNotifier()
	ch1, cancel1 := n.Subscribe()
	defer cancel1()
	ch2, cancel2 := n.Subscribe()
	defer cancel2()

	n.Publish(ChangeEvent{UserID: "alice", Start: 100, End: 200})

	ev1 := recvEvent(t, ch1)
	ev2 := recvEvent(t, ch2)
	assert.Equal(t, ChangeEvent{UserID: "alice", Start: 100, End: 200}, ev1)
	assert.Equal(t, ev1, ev2)
}

func TestNotifierCoalescesWhileSlow(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	// The subscriber is not reading, so later events must merge instead
	// of blocking the publisher.
	n.Publish(ChangeEvent{UserID: "alice", Start: 100, End: 200})
	n.Publish(ChangeEvent{UserID: "alice", Start: 500, End: 600})
	n.Publish(ChangeEvent{UserID: "alice", Start: 50, End: 80})

	ev := recvEvent(t, ch)
	assert.Equal(t, "alice", ev.UserID)
	assert.Equal(t, int64(50), ev.Start)
	assert.Equal(t, int64(600), ev.End)

	select {
	case extra, ok := <-ch:
		if ok {
			t.Fatalf("unexpected extra event: %+v", extra)
		}
	default:
	}
}

func TestNotifierMergesMixedUsers(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	n.Publish(ChangeEvent{UserID: "alice", Start: 100, End: 200})
	n.Publish(ChangeEvent{UserID: "bob", Start: 150, End: 300})

	ev := recvEvent(t, ch)
	// Differing users collapse to the wildcard.
	assert.Equal(t, "", ev.UserID)
	assert.Equal(t, int64(100), ev.Start)
	assert.Equal(t, int64(300), ev.End)
}

func TestNotifierCancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	// Publishing after cancel must not panic or deliver.
	n.Publish(ChangeEvent{UserID: "alice", Start: 1, End: 2})
}
