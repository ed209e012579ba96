// Package cards provides the card search client. Cards come back as
// immutable CardRecord snapshots; nothing here mutates or refreshes them
// after capture.
package cards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardbinder/cardbinder/internal/storage/models"
)

const (
	// ScryfallAPIBase is the base URL for Scryfall API requests.
	ScryfallAPIBase = "https://api.scryfall.com"

	// Scryfall asks clients to stay under ~10 requests per second.
	requestsPerSecond = 10
)

// ErrLookupFailed indicates the card search collaborator was unreachable
// or returned an error status. Surfaced to the user as a status message,
// never fatal.
var ErrLookupFailed = errors.New("card lookup failed")

// ScryfallClient handles requests to the Scryfall API.
type ScryfallClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewScryfallClient creates a new Scryfall API client.
func NewScryfallClient() *ScryfallClient {
	return &ScryfallClient{
		baseURL: ScryfallAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// NewScryfallClientWithBaseURL creates a client against a different
// endpoint. Used in tests.
func NewScryfallClientWithBaseURL(baseURL string) *ScryfallClient {
	c := NewScryfallClient()
	c.baseURL = baseURL
	return c
}

// searchResponse is the envelope returned by /cards/search.
type searchResponse struct {
	Object string              `json:"object"`
	Data   []models.CardRecord `json:"data"`
}

// Search runs a full-syntax Scryfall search and returns all printings.
// A 404 means "no cards matched" and returns an empty result, not an
// error.
func (sc *ScryfallClient) Search(ctx context.Context, query string) ([]models.CardRecord, error) {
	if query == "" {
		return []models.CardRecord{}, nil
	}

	if err := sc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/cards/search?q=%s&unique=prints", sc.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return []models.CardRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scryfall returned status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse Scryfall response: %w", err)
	}

	if sr.Data == nil {
		return []models.CardRecord{}, nil
	}
	return sr.Data, nil
}

// Named fetches a single card by name. With fuzzy set, Scryfall applies
// spelling correction. Returns (nil, nil) when no card matches.
func (sc *ScryfallClient) Named(ctx context.Context, name string, fuzzy bool) (*models.CardRecord, error) {
	if err := sc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	param := "exact"
	if fuzzy {
		param = "fuzzy"
	}
	u := fmt.Sprintf("%s/cards/named?%s=%s", sc.baseURL, param, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scryfall returned status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var card models.CardRecord
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to parse Scryfall response: %w", err)
	}

	return &card, nil
}
