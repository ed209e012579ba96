package analytics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

func card(name, typeLine string, cmc float64, usd, usdFoil string) models.CardRecord {
	return models.CardRecord{
		ID:       name,
		Name:     name,
		TypeLine: typeLine,
		CMC:      cmc,
		Prices:   models.Prices{USD: usd, USDFoil: usdFoil},
	}
}

func TestManaCurveBuckets(t *testing.T) {
	cards := []CardCount{
		{Card: card("Bolt", "Instant", 1, "", ""), Quantity: 4},
		{Card: card("Counterspell", "Instant", 2, "", ""), Quantity: 2},
		{Card: card("Emrakul", "Legendary Creature — Eldrazi", 15, "", ""), Quantity: 1},
		{Card: card("Island", "Basic Land — Island", 0, "", ""), Quantity: 10},
	}

	curve := ManaCurve(cards)

	if curve[0] != 10 {
		t.Errorf("bucket 0 = %d, want 10", curve[0])
	}
	if curve[1] != 4 {
		t.Errorf("bucket 1 = %d, want 4", curve[1])
	}
	if curve[2] != 2 {
		t.Errorf("bucket 2 = %d, want 2", curve[2])
	}
	if curve[7] != 1 {
		t.Errorf("bucket 7+ = %d, want 1", curve[7])
	}
}

func TestManaCurveFractionalCostFloors(t *testing.T) {
	cards := []CardCount{
		{Card: card("Half Mana", "Creature", 2.5, "", ""), Quantity: 1},
	}
	curve := ManaCurve(cards)
	if curve[2] != 1 {
		t.Errorf("bucket 2 = %d, want 1", curve[2])
	}
}

func TestTypeDistributionSortedByCount(t *testing.T) {
	cards := []CardCount{
		{Card: card("Bolt", "Instant", 1, "", ""), Quantity: 4},
		{Card: card("Grizzly Bears", "Creature — Bear", 2, "", ""), Quantity: 2},
		{Card: card("Island", "Basic Land — Island", 0, "", ""), Quantity: 4},
	}

	dist := TypeDistribution(cards)

	if len(dist) != 3 {
		t.Fatalf("got %d types, want 3", len(dist))
	}
	// Instant and Land tie at 4; Instant sorts first alphabetically.
	if dist[0].Type != "Instant" || dist[0].Count != 4 {
		t.Errorf("dist[0] = %+v, want Instant/4", dist[0])
	}
	if dist[1].Type != "Land" || dist[1].Count != 4 {
		t.Errorf("dist[1] = %+v, want Land/4", dist[1])
	}
	if dist[2].Type != "Creature" || dist[2].Count != 2 {
		t.Errorf("dist[2] = %+v, want Creature/2", dist[2])
	}
}

func TestTypeDistributionUsesPrimaryType(t *testing.T) {
	// Creature takes priority over Land on a dual-typed line.
	cards := []CardCount{
		{Card: card("Dryad Arbor", "Land Creature — Forest Dryad", 0, "", ""), Quantity: 1},
	}
	dist := TypeDistribution(cards)
	if dist[0].Type != "Creature" {
		t.Errorf("primary type = %q, want Creature", dist[0].Type)
	}
}

func TestCollectionValue(t *testing.T) {
	entries := []models.CollectionEntry{
		{Card: card("Bolt", "Instant", 1, "2.50", "10.00"), Quantity: 4, Foil: false},
		{Card: card("Foil Bolt", "Instant", 1, "2.50", "10.00"), Quantity: 1, Foil: true},
		{Card: card("Bulk", "Sorcery", 3, "", ""), Quantity: 20},
	}

	got := CollectionValue(entries)
	want := 4*2.50 + 10.00

	if got != want {
		t.Errorf("value = %v, want %v", got, want)
	}
}

func TestFromDeck(t *testing.T) {
	deck := &models.Deck{
		ID:   "d1",
		Name: "Test",
		Cards: map[string]models.DeckCard{
			"a": {Card: card("A", "Creature", 2, "", ""), Quantity: 3},
			"b": {Card: card("B", "Instant", 1, "", ""), Quantity: 2},
		},
	}
	cards := FromDeck(deck)
	if TotalCards(cards) != 5 {
		t.Errorf("total = %d, want 5", TotalCards(cards))
	}
}

func TestRenderManaCurveChart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curve.html")

	var curve [CurveBuckets]int
	curve[1] = 4
	curve[7] = 2

	if err := RenderManaCurveChart(curve, DefaultChartConfig("Mana Curve"), path); err != nil {
		t.Fatalf("failed to render chart: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read chart file: %v", err)
	}
	if !strings.Contains(string(data), "Mana Curve") {
		t.Error("chart output missing title")
	}
}

func TestRenderTypeDistributionChart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.html")

	dist := []TypeCount{{Type: "Creature", Count: 12}, {Type: "Land", Count: 24}}

	if err := RenderTypeDistributionChart(dist, DefaultChartConfig("Type Distribution"), path); err != nil {
		t.Fatalf("failed to render chart: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read chart file: %v", err)
	}
	if !strings.Contains(string(data), "Creature") {
		t.Error("chart output missing type name")
	}
}
