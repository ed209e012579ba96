package websocket

import (
	"fmt"

	"github.com/cardbinder/cardbinder/internal/events"
)

// EventObserver forwards dispatched domain events to WebSocket clients.
type EventObserver struct {
	hub *Hub
}

// NewEventObserver creates an observer bound to the given hub.
func NewEventObserver(hub *Hub) *EventObserver {
	return &EventObserver{hub: hub}
}

// OnEvent broadcasts the event to all connected clients.
func (o *EventObserver) OnEvent(event events.Event) error {
	if !o.hub.Broadcast(event.Type, event.Data) {
		return fmt.Errorf("hub is stopped")
	}
	return nil
}

// GetName returns the observer name for logging.
func (o *EventObserver) GetName() string {
	return "WebSocketForwarder"
}

// ShouldHandle forwards every event type to clients.
func (o *EventObserver) ShouldHandle(_ string) bool {
	return true
}

var _ events.Observer = (*EventObserver)(nil)
