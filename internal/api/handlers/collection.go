package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cardbinder/cardbinder/internal/analytics"
	"github.com/cardbinder/cardbinder/internal/api/response"
	"github.com/cardbinder/cardbinder/internal/collection"
	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// CollectionHandler handles collection API requests.
type CollectionHandler struct {
	manager *collection.Manager
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(manager *collection.Manager) *CollectionHandler {
	return &CollectionHandler{manager: manager}
}

// GetCollection returns the collection, filtered and sorted by query
// parameters.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := collection.Filter{
		Search: q.Get("search"),
		Set:    q.Get("set"),
		Rarity: q.Get("rarity"),
		Sort:   q.Get("sort"),
	}
	if colors := q.Get("colors"); colors != "" {
		filter.Colors = strings.Split(colors, ",")
	}

	entries := filter.Apply(h.manager.Collection())
	response.Success(w, entries)
}

// CollectionStats is the payload for the collection statistics endpoint.
type CollectionStats struct {
	TotalCards  int                   `json:"total_cards"`
	UniqueCards int                   `json:"unique_cards"`
	TotalValue  float64               `json:"total_value"`
	ManaCurve   []int                 `json:"mana_curve"`
	Types       []analytics.TypeCount `json:"types"`
}

// GetStats returns aggregate statistics over the whole collection.
func (h *CollectionHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	entries := h.manager.Collection()
	cards := analytics.FromEntries(entries)
	curve := analytics.ManaCurve(cards)

	response.Success(w, CollectionStats{
		TotalCards:  analytics.TotalCards(cards),
		UniqueCards: len(entries),
		TotalValue:  analytics.CollectionValue(entries),
		ManaCurve:   curve[:],
		Types:       analytics.TypeDistribution(cards),
	})
}

// GetStatsChart serves a rendered HTML chart of the collection: the mana
// curve by default, the type distribution with ?chart=types.
func (h *CollectionHandler) GetStatsChart(w http.ResponseWriter, r *http.Request) {
	entries := h.manager.Collection()
	cards := analytics.FromEntries(entries)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var err error
	if r.URL.Query().Get("chart") == "types" {
		err = analytics.RenderTypeDistribution(w,
			analytics.TypeDistribution(cards),
			analytics.DefaultChartConfig("Collection Type Distribution"))
	} else {
		err = analytics.RenderManaCurve(w,
			analytics.ManaCurve(cards),
			analytics.DefaultChartConfig("Collection Mana Curve"))
	}
	if err != nil {
		response.InternalError(w, err)
	}
}

// AddCard adds one copy of the posted card to the collection.
func (h *CollectionHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var card models.CardRecord
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		response.BadRequest(w, err)
		return
	}
	if card.ID == "" {
		response.BadRequest(w, errors.New("card id is required"))
		return
	}

	h.manager.AddCard(card)
	response.Created(w, card.ID)
}

// RemoveCard removes one copy of the card from the collection.
func (h *CollectionHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card id is required"))
		return
	}

	h.manager.RemoveCard(cardID)
	response.NoContent(w)
}

// ToggleFoil flips the foil flag on a collection entry.
func (h *CollectionHandler) ToggleFoil(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")
	if cardID == "" {
		response.BadRequest(w, errors.New("card id is required"))
		return
	}

	h.manager.ToggleFoil(cardID)
	response.NoContent(w)
}
