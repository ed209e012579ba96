// Package collection owns the in-memory collection and deck state and
// keeps the active persistence backend in sync with it.
package collection

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cardbinder/cardbinder/internal/events"
	"github.com/cardbinder/cardbinder/internal/storage"
	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// BackendSelector returns the persistence backend for an identity. An
// empty userID means a guest session and selects the local backend.
type BackendSelector func(userID string) storage.Backend

// Manager is the single owner of in-memory collection and deck state.
// Mutations are applied in-memory first, in issuance order, and the
// matching backend call is queued to a single persistence worker that
// executes writes one at a time in that same order. Writes are
// best-effort: a backend failure is logged but never rolls back the
// in-memory update, so the caller always sees the intended result
// immediately. Durability is not guaranteed until the backend write
// lands; there is no retry queue.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*models.CollectionEntry
	decks   map[string]*models.Deck

	backend storage.Backend
	userID  string

	selector   BackendSelector
	dispatcher *events.Dispatcher

	// Queued backend writes, drained FIFO by the persistence worker.
	// Ordering matters: an absolute-quantity upsert landing after a
	// later upsert or delete for the same card would durably revert it,
	// and a deck-cards update landing before its deck insert would be
	// lost.
	persistCh chan persistOp

	// Tracks queued backend calls so shutdown (and tests) can wait for
	// pending writes.
	pending sync.WaitGroup
}

type persistOp struct {
	name string
	fn   func(ctx context.Context) error
}

// NewManager creates a manager with empty state. Call Initialize to load
// state for the starting identity before use.
func NewManager(selector BackendSelector, dispatcher *events.Dispatcher) *Manager {
	m := &Manager{
		entries:    make(map[string]*models.CollectionEntry),
		decks:      make(map[string]*models.Deck),
		selector:   selector,
		dispatcher: dispatcher,
		persistCh:  make(chan persistOp, 128),
	}
	go m.persistLoop()
	return m
}

// Initialize discards the in-memory state and reloads it from the backend
// selected by the new identity. This is a full replace, not a merge:
// switching identity mid-session does not carry over unsynced guest data.
// A failed load leaves the state empty and is logged, never fatal.
func (m *Manager) Initialize(ctx context.Context, userID string) {
	backend := m.selector(userID)

	entries, err := backend.LoadCollection(ctx)
	if err != nil {
		log.Printf("[Collection] load collection failed, starting empty: %v", err)
		entries = nil
	}
	decks, err := backend.LoadDecks(ctx)
	if err != nil {
		log.Printf("[Collection] load decks failed, starting empty: %v", err)
		decks = nil
	}

	m.mu.Lock()
	m.backend = backend
	m.userID = userID
	m.entries = make(map[string]*models.CollectionEntry, len(entries))
	for i := range entries {
		e := entries[i]
		m.entries[e.Card.ID] = &e
	}
	m.decks = make(map[string]*models.Deck, len(decks))
	for i := range decks {
		d := decks[i]
		if d.Cards == nil {
			d.Cards = make(map[string]models.DeckCard)
		}
		m.decks[d.ID] = &d
	}
	m.mu.Unlock()

	m.notify(events.TypeSessionChanged, userID)
	m.notify(events.TypeCollectionUpdated, nil)
	m.notify(events.TypeDecksUpdated, nil)
}

// AddCard adds one copy of the card to the collection: an existing entry
// is incremented, otherwise a new entry is created with quantity 1, no
// foil, and the current timestamp.
func (m *Manager) AddCard(card models.CardRecord) {
	m.mu.Lock()
	entry, ok := m.entries[card.ID]
	if ok {
		entry.Quantity++
	} else {
		entry = &models.CollectionEntry{
			Card:     card,
			Quantity: 1,
			AddedAt:  models.NowMillis(),
		}
		m.entries[card.ID] = entry
	}
	snapshot := *entry
	backend := m.backend
	m.persist(backend, "add card", func(ctx context.Context) error {
		return backend.UpsertEntry(ctx, snapshot)
	})
	m.mu.Unlock()

	m.notify(events.TypeCollectionUpdated, snapshot.Card.ID)
}

// RemoveCard removes one copy of the card. The entry is deleted when its
// quantity would drop to zero. Removing an absent card is a no-op.
func (m *Manager) RemoveCard(cardID string) {
	m.mu.Lock()
	entry, ok := m.entries[cardID]
	if !ok {
		m.mu.Unlock()
		return
	}

	backend := m.backend
	if entry.Quantity > 1 {
		entry.Quantity--
		snapshot := *entry
		m.persist(backend, "remove card", func(ctx context.Context) error {
			return backend.UpsertEntry(ctx, snapshot)
		})
	} else {
		delete(m.entries, cardID)
		m.persist(backend, "remove card", func(ctx context.Context) error {
			return backend.DeleteEntry(ctx, cardID)
		})
	}
	m.mu.Unlock()

	m.notify(events.TypeCollectionUpdated, cardID)
}

// ToggleFoil flips the foil flag on the matching entry. No-op when the
// card is not in the collection.
func (m *Manager) ToggleFoil(cardID string) {
	m.mu.Lock()
	entry, ok := m.entries[cardID]
	if !ok {
		m.mu.Unlock()
		return
	}
	entry.Foil = !entry.Foil
	snapshot := *entry
	backend := m.backend
	m.persist(backend, "toggle foil", func(ctx context.Context) error {
		return backend.UpsertEntry(ctx, snapshot)
	})
	m.mu.Unlock()

	m.notify(events.TypeCollectionUpdated, cardID)
}

// CreateDeck creates a new empty deck with a client-generated id. Names
// that are empty or whitespace-only are rejected silently. Returns the new
// deck id, or "" when rejected.
func (m *Manager) CreateDeck(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	deck := models.Deck{
		ID:        uuid.NewString(),
		Name:      name,
		Cards:     make(map[string]models.DeckCard),
		CreatedAt: models.NowMillis(),
	}

	m.mu.Lock()
	d := deck.Clone()
	m.decks[deck.ID] = &d
	backend := m.backend
	m.persist(backend, "create deck", func(ctx context.Context) error {
		return backend.InsertDeck(ctx, deck)
	})
	m.mu.Unlock()

	m.notify(events.TypeDecksUpdated, deck.ID)
	return deck.ID
}

// AddCardToDeck adds quantity copies of the card to the deck, accumulating
// onto an existing slot for the same card id. Unknown deck ids and
// non-positive quantities are silent no-ops.
func (m *Manager) AddCardToDeck(deckID string, card models.CardRecord, quantity int) {
	if quantity <= 0 {
		return
	}

	m.mu.Lock()
	deck, ok := m.decks[deckID]
	if !ok {
		m.mu.Unlock()
		return
	}

	slot, ok := deck.Cards[card.ID]
	if ok {
		slot.Quantity += quantity
	} else {
		slot = models.DeckCard{Card: card, Quantity: quantity}
	}
	deck.Cards[card.ID] = slot

	cards := make(map[string]models.DeckCard, len(deck.Cards))
	for id, dc := range deck.Cards {
		cards[id] = dc
	}
	backend := m.backend
	m.persist(backend, "add card to deck", func(ctx context.Context) error {
		return backend.UpdateDeckCards(ctx, deckID, cards)
	})
	m.mu.Unlock()

	m.notify(events.TypeDecksUpdated, deckID)
}

// Collection returns a copy of all collection entries. Order is not
// significant; use Filter to search and sort for presentation.
func (m *Manager) Collection() []models.CollectionEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.CollectionEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, *entry)
	}
	return out
}

// Decks returns a copy of all decks.
func (m *Manager) Decks() []models.Deck {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Deck, 0, len(m.decks))
	for _, deck := range m.decks {
		out = append(out, deck.Clone())
	}
	return out
}

// Deck returns a copy of the deck with the given id, or false when absent.
func (m *Manager) Deck(id string) (models.Deck, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deck, ok := m.decks[id]
	if !ok {
		return models.Deck{}, false
	}
	return deck.Clone(), true
}

// UserID returns the identity the manager is currently bound to. Empty
// means a guest session.
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}

// Wait blocks until all in-flight backend writes have completed. Called
// on shutdown so pending best-effort writes get a chance to land.
func (m *Manager) Wait() {
	m.pending.Wait()
}

// persist queues a backend call for the persistence worker. Must be
// called with m.mu held so queue order matches in-memory mutation order.
// Failures are logged; the optimistic in-memory update stands
// regardless. The backend is captured at issuance time, so a write
// issued before an identity switch lands against the backend it was
// issued for.
func (m *Manager) persist(backend storage.Backend, op string, fn func(ctx context.Context) error) {
	if backend == nil {
		return
	}
	m.pending.Add(1)
	m.persistCh <- persistOp{name: op, fn: fn}
}

// persistLoop executes queued backend writes one at a time, in issuance
// order. Runs for the life of the manager.
func (m *Manager) persistLoop() {
	for op := range m.persistCh {
		if err := op.fn(context.Background()); err != nil {
			log.Printf("[Collection] %s: sync failed: %v", op.name, err)
		}
		m.pending.Done()
	}
}

func (m *Manager) notify(eventType string, data any) {
	if m.dispatcher == nil {
		return
	}
	m.dispatcher.Dispatch(events.Event{Type: eventType, Data: data})
}
