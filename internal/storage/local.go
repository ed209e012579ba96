package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// LocalBackend persists the collection and decks to the device-local
// SQLite database. It is the backend used for guest sessions.
type LocalBackend struct {
	db *sql.DB
}

// NewLocalBackend creates a local backend over an open database.
func NewLocalBackend(db *DB) *LocalBackend {
	return &LocalBackend{db: db.Conn()}
}

// LoadCollection returns every collection entry in the local store.
func (b *LocalBackend) LoadCollection(ctx context.Context) ([]models.CollectionEntry, error) {
	query := `SELECT card, quantity, foil, added_at FROM collection`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load collection: %v", ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []models.CollectionEntry
	for rows.Next() {
		var (
			cardJSON string
			entry    models.CollectionEntry
		)
		if err := rows.Scan(&cardJSON, &entry.Quantity, &entry.Foil, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan collection entry: %v", ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal([]byte(cardJSON), &entry.Card); err != nil {
			return nil, fmt.Errorf("%w: corrupt card snapshot: %v", ErrStorageUnavailable, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating collection: %v", ErrStorageUnavailable, err)
	}

	return entries, nil
}

// LoadDecks returns every deck in the local store.
func (b *LocalBackend) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	query := `SELECT id, name, cards, created_at FROM decks`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load decks: %v", ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var decks []models.Deck
	for rows.Next() {
		var (
			cardsJSON string
			deck      models.Deck
		)
		if err := rows.Scan(&deck.ID, &deck.Name, &cardsJSON, &deck.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan deck: %v", ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal([]byte(cardsJSON), &deck.Cards); err != nil {
			return nil, fmt.Errorf("%w: corrupt deck card mapping: %v", ErrStorageUnavailable, err)
		}
		if deck.Cards == nil {
			deck.Cards = make(map[string]models.DeckCard)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating decks: %v", ErrStorageUnavailable, err)
	}

	return decks, nil
}

// UpsertEntry inserts or updates the entry for its card id. The write is
// a single atomic statement, so replays and rapid successive calls cannot
// under-count.
func (b *LocalBackend) UpsertEntry(ctx context.Context, entry models.CollectionEntry) error {
	cardJSON, err := json.Marshal(entry.Card)
	if err != nil {
		return fmt.Errorf("failed to marshal card snapshot: %w", err)
	}

	query := `
		INSERT INTO collection (card_id, card, quantity, foil, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			quantity = excluded.quantity,
			foil = excluded.foil
	`

	_, err = b.db.ExecContext(ctx, query,
		entry.Card.ID, string(cardJSON), entry.Quantity, entry.Foil, entry.AddedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert entry: %v", ErrStorageUnavailable, err)
	}

	return nil
}

// DeleteEntry removes the entry for the card id. Absent rows are a no-op.
func (b *LocalBackend) DeleteEntry(ctx context.Context, cardID string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM collection WHERE card_id = ?`, cardID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete entry: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// InsertDeck creates a new deck row under the client-generated id.
func (b *LocalBackend) InsertDeck(ctx context.Context, deck models.Deck) error {
	cardsJSON, err := json.Marshal(deck.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal deck cards: %w", err)
	}

	query := `INSERT INTO decks (id, name, cards, created_at) VALUES (?, ?, ?, ?)`

	_, err = b.db.ExecContext(ctx, query, deck.ID, deck.Name, string(cardsJSON), deck.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert deck: %v", ErrStorageUnavailable, err)
	}

	return nil
}

// UpdateDeckCards replaces the full card mapping of the deck.
func (b *LocalBackend) UpdateDeckCards(ctx context.Context, deckID string, cards map[string]models.DeckCard) error {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to marshal deck cards: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `UPDATE decks SET cards = ? WHERE id = ?`, string(cardsJSON), deckID)
	if err != nil {
		return fmt.Errorf("%w: failed to update deck cards: %v", ErrStorageUnavailable, err)
	}

	return nil
}

// Ensure LocalBackend satisfies the backend contract.
var _ Backend = (*LocalBackend)(nil)
