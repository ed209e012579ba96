package collection

import (
	"testing"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

func entry(id, name, set, rarity, typeLine, usd string, colors ...string) models.CollectionEntry {
	return models.CollectionEntry{
		Card: models.CardRecord{
			ID:       id,
			Name:     name,
			SetName:  set,
			Rarity:   rarity,
			TypeLine: typeLine,
			Colors:   colors,
			Prices:   models.Prices{USD: usd},
		},
		Quantity: 1,
	}
}

func TestFilterSearchMatchesNameSetAndTypeLine(t *testing.T) {
	entries := []models.CollectionEntry{
		entry("1", "Lightning Bolt", "Masters 25", "common", "Instant", "2.50", "R"),
		entry("2", "Llanowar Elves", "Dominaria", "common", "Creature — Elf Druid", "0.25", "G"),
		entry("3", "Mox Opal", "Scars of Mirrodin", "mythic", "Artifact", "90.00"),
	}

	cases := []struct {
		name   string
		search string
		want   []string
	}{
		{"by name", "bolt", []string{"1"}},
		{"by set name", "dominaria", []string{"2"}},
		{"by type line", "artifact", []string{"3"}},
		{"no match", "dragon", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter{Search: tc.search}.Apply(entries)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d results, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].Card.ID != id {
					t.Errorf("result %d: expected card %s, got %s", i, id, got[i].Card.ID)
				}
			}
		})
	}
}

func TestFilterColorsMatchWithOrLogic(t *testing.T) {
	entries := []models.CollectionEntry{
		entry("1", "Lightning Bolt", "M25", "common", "Instant", "2.50", "R"),
		entry("2", "Boros Charm", "GTC", "uncommon", "Instant", "1.00", "R", "W"),
		entry("3", "Counterspell", "MH2", "common", "Instant", "1.50", "U"),
	}

	got := Filter{Colors: []string{"W", "U"}}.Apply(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	for _, e := range got {
		if e.Card.ID == "1" {
			t.Error("mono-red card should not match a W/U color filter")
		}
	}
}

func TestFilterDefaultSortIsPriceDescending(t *testing.T) {
	entries := []models.CollectionEntry{
		entry("cheap", "Opt", "DOM", "common", "Instant", "0.10", "U"),
		entry("mid", "Snapcaster Mage", "ISD", "rare", "Creature", "15.00", "U"),
		entry("pricy", "Force of Will", "EMA", "mythic", "Instant", "60.00", "U"),
	}

	got := Filter{}.Apply(entries)
	want := []string{"pricy", "mid", "cheap"}
	for i, id := range want {
		if got[i].Card.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].Card.ID)
		}
	}

	got = Filter{Sort: SortPriceAsc}.Apply(entries)
	if got[0].Card.ID != "cheap" || got[2].Card.ID != "pricy" {
		t.Error("price-asc sort order wrong")
	}

	got = Filter{Sort: SortNameAsc}.Apply(entries)
	if got[0].Card.Name != "Force of Will" {
		t.Errorf("name-asc: expected Force of Will first, got %s", got[0].Card.Name)
	}
}

func TestFilterSetAndRarity(t *testing.T) {
	entries := []models.CollectionEntry{
		entry("1", "A", "Dominaria", "rare", "Creature", "1"),
		entry("2", "B", "Dominaria", "common", "Creature", "1"),
		entry("3", "C", "Ixalan", "rare", "Creature", "1"),
	}

	got := Filter{Set: "Dominaria", Rarity: "rare"}.Apply(entries)
	if len(got) != 1 || got[0].Card.ID != "1" {
		t.Fatalf("expected only card 1, got %+v", got)
	}
}
