package storage

import (
	"context"
	"testing"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// setupTestDB opens an in-memory database with the collection schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("error closing database: %v", err)
		}
	})

	schema := `
		CREATE TABLE collection (
			card_id TEXT PRIMARY KEY,
			card TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			foil INTEGER NOT NULL DEFAULT 0,
			added_at INTEGER NOT NULL
		);

		CREATE TABLE decks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cards TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Conn().Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

func testEntry(id, name string, quantity int) models.CollectionEntry {
	return models.CollectionEntry{
		Card: models.CardRecord{
			ID:              id,
			Name:            name,
			SetName:         "Test Set",
			CollectorNumber: "42",
			Rarity:          "rare",
			CMC:             2,
			TypeLine:        "Instant",
			Prices:          models.Prices{USD: "1.50"},
		},
		Quantity: quantity,
		AddedAt:  1700000000000,
	}
}

func TestLocalBackendUpsertIsIdempotent(t *testing.T) {
	backend := NewLocalBackend(setupTestDB(t))
	ctx := context.Background()

	entry := testEntry("c1", "Remand", 1)
	if err := backend.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Same write again must not duplicate the row.
	if err := backend.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("repeat upsert failed: %v", err)
	}

	entry.Quantity = 3
	entry.Foil = true
	if err := backend.UpsertEntry(ctx, entry); err != nil {
		t.Fatalf("update upsert failed: %v", err)
	}

	entries, err := backend.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].Quantity != 3 || !entries[0].Foil {
		t.Errorf("expected quantity 3 foil, got %+v", entries[0])
	}
	if entries[0].Card.Name != "Remand" {
		t.Errorf("card snapshot lost in round trip: %+v", entries[0].Card)
	}
}

func TestLocalBackendDeleteAbsentIsNoOp(t *testing.T) {
	backend := NewLocalBackend(setupTestDB(t))

	if err := backend.DeleteEntry(context.Background(), "never-existed"); err != nil {
		t.Fatalf("delete of absent entry should be a no-op, got %v", err)
	}
}

func TestLocalBackendCollectionRoundTrip(t *testing.T) {
	backend := NewLocalBackend(setupTestDB(t))
	ctx := context.Background()

	want := map[string]models.CollectionEntry{
		"a": testEntry("a", "Opt", 4),
		"b": testEntry("b", "Ponder", 2),
		"c": testEntry("c", "Preordain", 1),
	}
	for _, e := range want {
		if err := backend.UpsertEntry(ctx, e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	got, err := backend.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}

	// Content equality, order-independent.
	for _, e := range got {
		w, ok := want[e.Card.ID]
		if !ok {
			t.Errorf("unexpected entry %q", e.Card.ID)
			continue
		}
		if e.Quantity != w.Quantity || e.AddedAt != w.AddedAt || e.Card.Name != w.Card.Name {
			t.Errorf("entry %q mismatch: got %+v want %+v", e.Card.ID, e, w)
		}
	}
}

func TestLocalBackendDeckRoundTrip(t *testing.T) {
	backend := NewLocalBackend(setupTestDB(t))
	ctx := context.Background()

	deck := models.Deck{
		ID:        "deck-1",
		Name:      "Izzet Tempo",
		Cards:     map[string]models.DeckCard{},
		CreatedAt: 1700000000000,
	}
	if err := backend.InsertDeck(ctx, deck); err != nil {
		t.Fatalf("insert deck failed: %v", err)
	}

	cards := map[string]models.DeckCard{
		"a": {Card: testEntry("a", "Opt", 1).Card, Quantity: 4},
		"b": {Card: testEntry("b", "Ponder", 1).Card, Quantity: 3},
	}
	if err := backend.UpdateDeckCards(ctx, "deck-1", cards); err != nil {
		t.Fatalf("update deck cards failed: %v", err)
	}

	decks, err := backend.LoadDecks(ctx)
	if err != nil {
		t.Fatalf("load decks failed: %v", err)
	}
	if len(decks) != 1 {
		t.Fatalf("expected one deck, got %d", len(decks))
	}
	got := decks[0]
	if got.Name != "Izzet Tempo" || got.CreatedAt != deck.CreatedAt {
		t.Errorf("deck fields mismatch: %+v", got)
	}
	if len(got.Cards) != 2 {
		t.Fatalf("expected 2 card slots, got %d", len(got.Cards))
	}
	if got.Cards["a"].Quantity != 4 || got.Cards["b"].Quantity != 3 {
		t.Errorf("deck card quantities mismatch: %+v", got.Cards)
	}
}

func TestLocalBackendEmptyLoads(t *testing.T) {
	backend := NewLocalBackend(setupTestDB(t))
	ctx := context.Background()

	entries, err := backend.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("load collection failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty collection, got %d", len(entries))
	}

	decks, err := backend.LoadDecks(ctx)
	if err != nil {
		t.Fatalf("load decks failed: %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("expected no decks, got %d", len(decks))
	}
}
