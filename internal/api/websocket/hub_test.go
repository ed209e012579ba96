package websocket

import (
	"testing"
	"time"

	"github.com/cardbinder/cardbinder/internal/events"
)

func TestBroadcastAfterStopReturnsFalse(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	hub.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if !hub.Broadcast("collection:updated", nil) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("broadcast should fail after hub stops")
}

func TestStopIsIdempotent(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	hub.Stop()
	hub.Stop()
}

func TestObserverForwardsEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	observer := NewEventObserver(hub)
	if !observer.ShouldHandle(events.TypeCollectionUpdated) {
		t.Error("observer should handle collection events")
	}
	if err := observer.OnEvent(events.Event{Type: events.TypeCollectionUpdated}); err != nil {
		t.Errorf("forwarding failed: %v", err)
	}
}
