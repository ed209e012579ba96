// Package analytics computes simple collection and deck statistics: mana
// curve, type distribution, and collection value.
package analytics

import (
	"sort"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// CurveBuckets is the number of mana-curve buckets. The last bucket
// aggregates everything at seven mana and above.
const CurveBuckets = 8

// CardCount pairs a card snapshot with an owned or slotted quantity.
type CardCount struct {
	Card     models.CardRecord
	Quantity int
}

// FromEntries adapts collection entries for the analytics functions.
func FromEntries(entries []models.CollectionEntry) []CardCount {
	out := make([]CardCount, len(entries))
	for i, e := range entries {
		out[i] = CardCount{Card: e.Card, Quantity: e.Quantity}
	}
	return out
}

// FromDeck adapts a deck's card mapping for the analytics functions.
func FromDeck(deck *models.Deck) []CardCount {
	out := make([]CardCount, 0, len(deck.Cards))
	for _, dc := range deck.Cards {
		out = append(out, CardCount{Card: dc.Card, Quantity: dc.Quantity})
	}
	return out
}

// ManaCurve returns the quantity-weighted converted-mana-cost
// distribution. Bucket i counts cards with cmc i; the final bucket counts
// cmc >= 7. Fractional and negative costs clamp into range.
func ManaCurve(cards []CardCount) [CurveBuckets]int {
	var curve [CurveBuckets]int
	for _, cc := range cards {
		idx := int(cc.Card.CMC)
		if idx < 0 {
			idx = 0
		}
		if idx >= CurveBuckets {
			idx = CurveBuckets - 1
		}
		curve[idx] += cc.Quantity
	}
	return curve
}

// TypeCount is one slice of the type distribution.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeDistribution returns the quantity-weighted primary-type counts,
// sorted by count descending (ties by name for stable output).
func TypeDistribution(cards []CardCount) []TypeCount {
	counts := make(map[string]int)
	for _, cc := range cards {
		counts[cc.Card.MainType()] += cc.Quantity
	}

	out := make([]TypeCount, 0, len(counts))
	for typ, count := range counts {
		out = append(out, TypeCount{Type: typ, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// CollectionValue sums the snapshot USD prices of the entries, using the
// foil price for foil entries. Cards with no listed price contribute
// nothing.
func CollectionValue(entries []models.CollectionEntry) float64 {
	total := 0.0
	for _, e := range entries {
		total += e.Card.PriceUSD(e.Foil) * float64(e.Quantity)
	}
	return total
}

// TotalCards counts all copies across the given cards.
func TotalCards(cards []CardCount) int {
	n := 0
	for _, cc := range cards {
		n += cc.Quantity
	}
	return n
}
