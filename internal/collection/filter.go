package collection

import (
	"sort"
	"strings"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// Sort options for collection views.
const (
	SortNameAsc   = "name-asc"
	SortPriceDesc = "price-desc"
	SortPriceAsc  = "price-asc"
)

// Filter narrows and orders a collection view for presentation. Zero
// values mean "no constraint". Colors match with OR logic: a card passes
// when it shares at least one color with the selection.
type Filter struct {
	Search string
	Set    string
	Rarity string
	Colors []string
	Sort   string
}

// Apply returns the entries matching the filter, ordered by the filter's
// sort option (price descending when unset, matching the collection view's
// default).
func (f Filter) Apply(entries []models.CollectionEntry) []models.CollectionEntry {
	out := make([]models.CollectionEntry, 0, len(entries))

	term := strings.ToLower(f.Search)
	for _, e := range entries {
		if term != "" && !matchesSearch(&e.Card, term) {
			continue
		}
		if f.Set != "" && e.Card.SetName != f.Set {
			continue
		}
		if f.Rarity != "" && e.Card.Rarity != f.Rarity {
			continue
		}
		if len(f.Colors) > 0 && !matchesAnyColor(&e.Card, f.Colors) {
			continue
		}
		out = append(out, e)
	}

	switch f.Sort {
	case SortNameAsc:
		sort.Slice(out, func(i, j int) bool {
			return out[i].Card.Name < out[j].Card.Name
		})
	case SortPriceAsc:
		sort.Slice(out, func(i, j int) bool {
			return out[i].Card.PriceUSD(false) < out[j].Card.PriceUSD(false)
		})
	default:
		sort.Slice(out, func(i, j int) bool {
			return out[i].Card.PriceUSD(false) > out[j].Card.PriceUSD(false)
		})
	}

	return out
}

func matchesSearch(c *models.CardRecord, term string) bool {
	if strings.Contains(strings.ToLower(c.Name), term) {
		return true
	}
	if c.PrintedName != "" && strings.Contains(strings.ToLower(c.PrintedName), term) {
		return true
	}
	if strings.Contains(strings.ToLower(c.SetName), term) {
		return true
	}
	return strings.Contains(strings.ToLower(c.TypeLine), term)
}

func matchesAnyColor(c *models.CardRecord, colors []string) bool {
	for _, want := range colors {
		for _, have := range c.Colors {
			if want == have {
				return true
			}
		}
	}
	return false
}
