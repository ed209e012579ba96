package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardbinder/cardbinder/internal/analytics"
	"github.com/cardbinder/cardbinder/internal/api/response"
	"github.com/cardbinder/cardbinder/internal/collection"
	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// DecksHandler handles deck API requests.
type DecksHandler struct {
	manager *collection.Manager
}

// NewDecksHandler creates a new DecksHandler.
func NewDecksHandler(manager *collection.Manager) *DecksHandler {
	return &DecksHandler{manager: manager}
}

// List returns all decks.
func (h *DecksHandler) List(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.manager.Decks())
}

// Get returns one deck by id.
func (h *DecksHandler) Get(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.manager.Deck(chi.URLParam(r, "deckID"))
	if !ok {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	response.Success(w, deck)
}

type createDeckRequest struct {
	Name string `json:"name"`
}

// Create creates a new empty deck.
func (h *DecksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}

	id := h.manager.CreateDeck(req.Name)
	if id == "" {
		response.UnprocessableEntity(w, errors.New("deck name cannot be blank"))
		return
	}

	response.Created(w, id)
}

type addDeckCardRequest struct {
	Card     models.CardRecord `json:"card"`
	Quantity int               `json:"quantity"`
}

// AddCard adds copies of a card to a deck.
func (h *DecksHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if _, ok := h.manager.Deck(deckID); !ok {
		response.NotFound(w, errors.New("deck not found"))
		return
	}

	var req addDeckCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Card.ID == "" {
		response.BadRequest(w, errors.New("card id is required"))
		return
	}
	if req.Quantity <= 0 {
		response.BadRequest(w, errors.New("quantity must be positive"))
		return
	}

	h.manager.AddCardToDeck(deckID, req.Card, req.Quantity)
	response.NoContent(w)
}

// DeckStats is the payload for the deck statistics endpoint.
type DeckStats struct {
	TotalCards int                   `json:"total_cards"`
	ManaCurve  []int                 `json:"mana_curve"`
	Types      []analytics.TypeCount `json:"types"`
}

// GetStats returns mana curve and type distribution for one deck.
func (h *DecksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.manager.Deck(chi.URLParam(r, "deckID"))
	if !ok {
		response.NotFound(w, errors.New("deck not found"))
		return
	}

	cards := analytics.FromDeck(&deck)
	curve := analytics.ManaCurve(cards)

	response.Success(w, DeckStats{
		TotalCards: analytics.TotalCards(cards),
		ManaCurve:  curve[:],
		Types:      analytics.TypeDistribution(cards),
	})
}

// GetStatsChart serves a rendered HTML chart for one deck: the mana
// curve by default, the type distribution with ?chart=types.
func (h *DecksHandler) GetStatsChart(w http.ResponseWriter, r *http.Request) {
	deck, ok := h.manager.Deck(chi.URLParam(r, "deckID"))
	if !ok {
		response.NotFound(w, errors.New("deck not found"))
		return
	}
	cards := analytics.FromDeck(&deck)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var err error
	if r.URL.Query().Get("chart") == "types" {
		err = analytics.RenderTypeDistribution(w,
			analytics.TypeDistribution(cards),
			analytics.DefaultChartConfig(deck.Name+" Type Distribution"))
	} else {
		err = analytics.RenderManaCurve(w,
			analytics.ManaCurve(cards),
			analytics.DefaultChartConfig(deck.Name+" Mana Curve"))
	}
	if err != nil {
		response.InternalError(w, err)
	}
}
