// Package events provides a small observer-pattern dispatcher for domain
// events (collection changes, deck changes, session changes, scans).
package events

import (
	"log"
	"sync"
)

// Event types dispatched by the application.
const (
	TypeCollectionUpdated = "collection:updated"
	TypeDecksUpdated      = "decks:updated"
	TypeSessionChanged    = "session:changed"
	TypeScanIdentified    = "scan:identified"
)

// Event is a domain event delivered to observers.
type Event struct {
	// Type is the event type, e.g. "collection:updated".
	Type string

	// Data is the event payload.
	Data any
}

// Observer is notified of dispatched events. Implementations decide which
// event types they care about via ShouldHandle.
type Observer interface {
	// OnEvent is called when an event is dispatched.
	OnEvent(event Event) error

	// GetName returns a human-readable name for logging.
	GetName() string

	// ShouldHandle reports whether this observer handles the event type.
	ShouldHandle(eventType string) bool
}

// Dispatcher distributes events to registered observers.
// Thread-safe for concurrent use.
type Dispatcher struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{observers: make([]Observer, 0)}
}

// Register adds an observer to the dispatcher.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	log.Printf("[Events] Registered observer: %s", observer.GetName())
}

// Unregister removes an observer from the dispatcher.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			return
		}
	}
}

// Dispatch sends an event to all registered observers in registration
// order. An observer error is logged and does not stop delivery to the
// remaining observers.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}
		if err := observer.OnEvent(event); err != nil {
			log.Printf("[Events] Observer %s failed to handle event %s: %v",
				observer.GetName(), event.Type, err)
		}
	}
}
