// Package remote implements the hosted persistence backend. Every row is
// scoped to the identity the backend was bound to at creation; the hosted
// store's row-level policy enforces that scoping server-side as well.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardbinder/cardbinder/internal/storage"
	"github.com/cardbinder/cardbinder/internal/storage/models"
)

const defaultConnTimeout = 5 * time.Second

// Config holds connection settings for the hosted store.
type Config struct {
	// DSN is the Postgres connection string.
	DSN string `toml:"dsn"`

	// PoolSize is the maximum number of pooled connections. Default: 4.
	PoolSize int `toml:"pool_size"`
}

// Pool wraps the shared connection pool to the hosted store. One pool is
// opened per process; backends bound to different identities share it.
type Pool struct {
	pool *pgxpool.Pool
}

// Connect opens a connection pool to the hosted store.
func Connect(ctx context.Context, cfg Config) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	poolConfig.ConnConfig.ConnectTimeout = defaultConnTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping hosted store: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// Backend is the hosted persistence backend bound to a single identity.
// A new Backend is created on every identity change so that an in-flight
// write started before a switch can only land under the identity it was
// issued for.
type Backend struct {
	pool   *pgxpool.Pool
	userID string
}

// NewBackend binds a backend to the given identity.
func (p *Pool) NewBackend(userID string) *Backend {
	return &Backend{pool: p.pool, userID: userID}
}

// LoadCollection returns the identity's collection entries.
func (b *Backend) LoadCollection(ctx context.Context) ([]models.CollectionEntry, error) {
	query := `SELECT card, quantity, foil, added_at FROM collection WHERE user_id = $1`

	rows, err := b.pool.Query(ctx, query, b.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load collection: %v", storage.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var entries []models.CollectionEntry
	for rows.Next() {
		var (
			cardJSON []byte
			entry    models.CollectionEntry
		)
		if err := rows.Scan(&cardJSON, &entry.Quantity, &entry.Foil, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan collection entry: %v", storage.ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal(cardJSON, &entry.Card); err != nil {
			return nil, fmt.Errorf("%w: corrupt card snapshot: %v", storage.ErrStorageUnavailable, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating collection: %v", storage.ErrStorageUnavailable, err)
	}

	return entries, nil
}

// LoadDecks returns the identity's decks.
func (b *Backend) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	query := `SELECT id, name, cards, created_at FROM decks WHERE user_id = $1`

	rows, err := b.pool.Query(ctx, query, b.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load decks: %v", storage.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var (
			cardsJSON []byte
			deck      models.Deck
		)
		if err := rows.Scan(&deck.ID, &deck.Name, &cardsJSON, &deck.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan deck: %v", storage.ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal(cardsJSON, &deck.Cards); err != nil {
			return nil, fmt.Errorf("%w: corrupt deck card mapping: %v", storage.ErrStorageUnavailable, err)
		}
		if deck.Cards == nil {
			deck.Cards = make(map[string]models.DeckCard)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating decks: %v", storage.ErrStorageUnavailable, err)
	}

	return decks, nil
}

// UpsertEntry inserts or updates the entry for (identity, card id). The
// write is a single atomic statement server-side, so two rapid successive
// upserts for the same card cannot under-count the way a client-side
// read-modify-write cycle could.
func (b *Backend) UpsertEntry(ctx context.Context, entry models.CollectionEntry) error {
	cardJSON, err := json.Marshal(entry.Card)
	if err != nil {
		return fmt.Errorf("failed to marshal card snapshot: %w", err)
	}

	query := `
		INSERT INTO collection (user_id, card_id, card, quantity, foil, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			foil = EXCLUDED.foil
	`

	_, err = b.pool.Exec(ctx, query,
		b.userID, entry.Card.ID, cardJSON, entry.Quantity, entry.Foil, entry.AddedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert entry: %v", storage.ErrStorageUnavailable, err)
	}

	return nil
}

// DeleteEntry removes the identity's entry for the card id. Absent rows
// are a no-op.
func (b *Backend) DeleteEntry(ctx context.Context, cardID string) error {
	_, err := b.pool.Exec(ctx,
		`DELETE FROM collection WHERE user_id = $1 AND card_id = $2`, b.userID, cardID)
	if err != nil {
		return fmt.Errorf("%w: failed to delete entry: %v", storage.ErrStorageUnavailable, err)
	}
	return nil
}

// InsertDeck creates a new deck row under the client-generated id.
func (b *Backend) InsertDeck(ctx context.Context, deck models.Deck) error {
	cardsJSON, err := json.Marshal(deck.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal deck cards: %w", err)
	}

	query := `INSERT INTO decks (id, user_id, name, cards, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err = b.pool.Exec(ctx, query, deck.ID, b.userID, deck.Name, cardsJSON, deck.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert deck: %v", storage.ErrStorageUnavailable, err)
	}

	return nil
}

// UpdateDeckCards replaces the full card mapping of the identity's deck.
func (b *Backend) UpdateDeckCards(ctx context.Context, deckID string, cards map[string]models.DeckCard) error {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to marshal deck cards: %w", err)
	}

	_, err = b.pool.Exec(ctx,
		`UPDATE decks SET cards = $1 WHERE id = $2 AND user_id = $3`, cardsJSON, deckID, b.userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update deck cards: %v", storage.ErrStorageUnavailable, err)
	}

	return nil
}

// Ensure Backend satisfies the backend contract.
var _ storage.Backend = (*Backend)(nil)
