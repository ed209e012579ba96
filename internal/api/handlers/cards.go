// Package handlers contains the HTTP handlers for the REST API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/cardbinder/cardbinder/internal/api/response"
	"github.com/cardbinder/cardbinder/internal/storage/models"
)

// CardFinder looks up cards in the card database service.
type CardFinder interface {
	Search(ctx context.Context, query string) ([]models.CardRecord, error)
	Named(ctx context.Context, name string, fuzzy bool) (*models.CardRecord, error)
}

// CardsHandler handles card search API requests.
type CardsHandler struct {
	finder CardFinder
}

// NewCardsHandler creates a new CardsHandler.
func NewCardsHandler(finder CardFinder) *CardsHandler {
	return &CardsHandler{finder: finder}
}

// Search runs a full-syntax card search.
func (h *CardsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, errors.New("query parameter q is required"))
		return
	}

	results, err := h.finder.Search(r.Context(), query)
	if err != nil {
		response.ServiceUnavailable(w, err)
		return
	}

	response.Success(w, results)
}

// Named looks up a single card by name, fuzzy by default.
func (h *CardsHandler) Named(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		response.BadRequest(w, errors.New("query parameter name is required"))
		return
	}
	fuzzy := r.URL.Query().Get("exact") != "true"

	card, err := h.finder.Named(r.Context(), name, fuzzy)
	if err != nil {
		response.ServiceUnavailable(w, err)
		return
	}
	if card == nil {
		response.NotFound(w, errors.New("no card matches that name"))
		return
	}

	response.Success(w, card)
}
