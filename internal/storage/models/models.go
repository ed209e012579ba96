// Package models defines the data shapes persisted by the collection backends.
package models

import (
	"strconv"
	"strings"
	"time"
)

// ImageURIs holds card image references by size variant.
type ImageURIs struct {
	Small  string `json:"small,omitempty"`
	Normal string `json:"normal,omitempty"`
}

// Prices is a snapshot of card prices at acquisition time.
// Values are decimal strings as returned by the card source; empty means
// no price was listed.
type Prices struct {
	USD     string `json:"usd,omitempty"`
	USDFoil string `json:"usd_foil,omitempty"`
	EUR     string `json:"eur,omitempty"`
	EURFoil string `json:"eur_foil,omitempty"`
}

// CardRecord is an immutable snapshot of a card as returned by the card
// search source. Identity is ID; every other field is presentation data
// copied verbatim at acquisition time. Prices are never refreshed.
type CardRecord struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	PrintedName     string     `json:"printed_name,omitempty"`
	Lang            string     `json:"lang,omitempty"`
	SetName         string     `json:"set_name"`
	SetCode         string     `json:"set,omitempty"`
	CollectorNumber string     `json:"collector_number"`
	Rarity          string     `json:"rarity"`
	CMC             float64    `json:"cmc"`
	TypeLine        string     `json:"type_line"`
	ManaCost        string     `json:"mana_cost,omitempty"`
	Colors          []string   `json:"colors,omitempty"`
	Prices          Prices     `json:"prices"`
	ImageURIs       *ImageURIs `json:"image_uris,omitempty"`
}

// PriceUSD returns the snapshot USD price (foil variant when foil is true)
// as a float, or 0 when no price was listed.
func (c *CardRecord) PriceUSD(foil bool) float64 {
	s := c.Prices.USD
	if foil {
		s = c.Prices.USDFoil
	}
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MainType reduces a type line to a single primary type for analytics.
// Multi-typed cards resolve in a fixed priority order, e.g. an Artifact
// Creature counts as a Creature.
func (c *CardRecord) MainType() string {
	for _, t := range []string{
		"Creature", "Land", "Instant", "Sorcery",
		"Planeswalker", "Enchantment", "Artifact", "Battle",
	} {
		if strings.Contains(c.TypeLine, t) {
			return t
		}
	}
	return "Other"
}

// CollectionEntry is one owned-card bookkeeping record. The card snapshot
// is embedded by value, not referenced. Quantity is always >= 1; an entry
// that would drop below 1 is deleted instead. AddedAt is epoch
// milliseconds, set once at creation.
type CollectionEntry struct {
	Card     CardRecord `json:"card"`
	Quantity int        `json:"quantity"`
	Foil     bool       `json:"foil,omitempty"`
	AddedAt  int64      `json:"addedAt"`
}

// DeckCard is one card slot within a deck.
type DeckCard struct {
	Card     CardRecord `json:"card"`
	Quantity int        `json:"quantity"`
}

// Deck is a named, user-curated multiset of cards. The id is generated
// client-side and is authoritative; both backends store it verbatim.
// Each card id appears at most once in Cards.
type Deck struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Cards     map[string]DeckCard `json:"cards"`
	CreatedAt int64               `json:"createdAt"`
}

// Clone returns a deep copy of the deck. The card mapping is copied so
// callers can mutate the result without affecting the original.
func (d *Deck) Clone() Deck {
	out := *d
	out.Cards = make(map[string]DeckCard, len(d.Cards))
	for id, dc := range d.Cards {
		out.Cards[id] = dc
	}
	return out
}

// TotalCards returns the number of cards in the deck counting quantities.
func (d *Deck) TotalCards() int {
	n := 0
	for _, dc := range d.Cards {
		n += dc.Quantity
	}
	return n
}

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
