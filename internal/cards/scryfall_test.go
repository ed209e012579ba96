package cards

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchReturnsCards(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("unique"); got != "prints" {
			t.Errorf("expected unique=prints, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [
				{"id": "abc", "name": "Lightning Bolt", "set_name": "Masters 25",
				 "collector_number": "141", "rarity": "uncommon", "cmc": 1,
				 "type_line": "Instant", "colors": ["R"],
				 "prices": {"usd": "2.50", "usd_foil": "9.99"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewScryfallClientWithBaseURL(server.URL)
	cards, err := client.Search(context.Background(), `!"Lightning Bolt"`)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}

	card := cards[0]
	if card.ID != "abc" || card.Name != "Lightning Bolt" {
		t.Errorf("card identity mismatch: %+v", card)
	}
	if card.Prices.USD != "2.50" || card.Prices.USDFoil != "9.99" {
		t.Errorf("price snapshot mismatch: %+v", card.Prices)
	}
	if card.PriceUSD(true) != 9.99 {
		t.Errorf("expected foil price 9.99, got %v", card.PriceUSD(true))
	}
}

func TestSearchNotFoundIsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"object":"error"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewScryfallClientWithBaseURL(server.URL)
	cards, err := client.Search(context.Background(), "no such card")
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected empty result, got %d", len(cards))
	}
}

func TestSearchEmptyQueryShortCircuits(t *testing.T) {
	client := NewScryfallClient()
	cards, err := client.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("empty query should not error: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("expected empty result for empty query")
	}
}

func TestNamedFuzzy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fuzzy"); got != "jace beleren" {
			t.Errorf("expected fuzzy=jace beleren, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "j1", "name": "Jace Beleren", "set_name": "Lorwyn",
			"collector_number": "71", "rarity": "mythic", "cmc": 3,
			"type_line": "Legendary Planeswalker — Jace", "prices": {}}`))
	}))
	defer server.Close()

	client := NewScryfallClientWithBaseURL(server.URL)
	card, err := client.Named(context.Background(), "jace beleren", true)
	if err != nil {
		t.Fatalf("named lookup failed: %v", err)
	}
	if card == nil || card.Name != "Jace Beleren" {
		t.Fatalf("unexpected card: %+v", card)
	}
}

func TestNamedNotFoundReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewScryfallClientWithBaseURL(server.URL)
	card, err := client.Named(context.Background(), "nonsense", false)
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if card != nil {
		t.Errorf("expected nil card, got %+v", card)
	}
}

func TestPreciseQuery(t *testing.T) {
	cases := []struct {
		name, set, cn string
		want          string
	}{
		{"Lightning Bolt", "m25", "141", `!"Lightning Bolt" set:m25 cn:141`},
		{"Opt", "", "", `!"Opt"`},
		{"Shock", "afr", "046/281", `!"Shock" set:afr cn:046`},
		{"Doom Blade", "", "104 ", `!"Doom Blade" cn:104`},
	}

	for _, tc := range cases {
		if got := PreciseQuery(tc.name, tc.set, tc.cn); got != tc.want {
			t.Errorf("PreciseQuery(%q, %q, %q) = %q, want %q", tc.name, tc.set, tc.cn, got, tc.want)
		}
	}
}
