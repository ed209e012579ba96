package storage

import (
	"context"
	"errors"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// ErrStorageUnavailable indicates the persistence medium could not be read
// or written (corrupt local data, network or auth failure for the remote
// store). Callers treat a failed load as an empty result and log; the
// in-memory state remains the source of truth.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Backend abstracts the two interchangeable persistence variants: the
// device-local store and the identity-scoped remote store. All writes are
// idempotent with respect to their key (card id for collection entries,
// deck id for decks), so replaying a call is safe.
type Backend interface {
	// LoadCollection returns every collection entry in the store.
	LoadCollection(ctx context.Context) ([]models.CollectionEntry, error)

	// LoadDecks returns every deck in the store.
	LoadDecks(ctx context.Context) ([]models.Deck, error)

	// UpsertEntry inserts the entry or, if one exists for the same card
	// id, replaces its quantity and foil fields.
	UpsertEntry(ctx context.Context, entry models.CollectionEntry) error

	// DeleteEntry removes the entry for the card id. Deleting an absent
	// entry is a no-op, not an error.
	DeleteEntry(ctx context.Context, cardID string) error

	// InsertDeck creates a new deck row under the client-generated id.
	InsertDeck(ctx context.Context, deck models.Deck) error

	// UpdateDeckCards replaces the full card mapping of the deck. This is
	// coarse-grained by design; there is no per-card diff.
	UpdateDeckCards(ctx context.Context, deckID string, cards map[string]models.DeckCard) error
}
