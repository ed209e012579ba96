// Package vision identifies a physical card from a photo using a hosted
// generative vision model. The model is treated as opaque and unreliable:
// malformed output degrades to a name guess, and "no card in frame" is a
// distinct outcome from a transport failure.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoCard is returned when the model reports that no card is visible in
// the image. Callers handle this separately from hard failures (retry the
// capture rather than surfacing an error).
var ErrNoCard = errors.New("no card detected")

// Config configures the vision client.
type Config struct {
	// BaseURL is the generative API endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates requests.
	APIKey string `toml:"api_key"`

	// Model is the vision model name.
	Model string `toml:"model"`

	// RequestTimeout is the timeout for identification requests.
	RequestTimeout time.Duration `toml:"-"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://generativelanguage.googleapis.com",
		Model:          "gemini-2.0-flash",
		RequestTimeout: 60 * time.Second,
	}
}

// Identification is the model's answer for one image. Only Name is
// guaranteed; set code and collector number are filled in when legible.
type Identification struct {
	Name            string `json:"name"`
	SetCode         string `json:"set_code,omitempty"`
	CollectorNumber string `json:"collector_number,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Client calls the generative vision API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new vision client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 60 * time.Second
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

const identifyPrompt = `Identify the Magic: The Gathering card in this image.
Return ONLY a valid JSON object with these fields:
{
  "name": "English name of the card",
  "set_code": "Three-letter set code if visible (e.g. MID, NEO)",
  "collector_number": "Collector number if visible"
}
If no card is visible, return { "error": "NO CARD" }.
Do NOT use markdown fences. Just the raw JSON.`

// request/response shapes for the generateContent endpoint.

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Identify sends the JPEG image to the vision model and parses its
// answer. A model report of "NO CARD" maps to ErrNoCard; a non-JSON
// answer is treated as a bare name guess rather than a failure.
func (c *Client) Identify(ctx context.Context, image []byte) (*Identification, error) {
	req := generateRequest{
		Contents: []generateContent{{
			Parts: []generatePart{
				{Text: identifyPrompt},
				{InlineData: &inlineData{
					MimeType: "image/jpeg",
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.config.BaseURL, c.config.Model, c.config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("identify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("identify failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from vision model")
	}

	return ParseIdentification(genResp.Candidates[0].Content.Parts[0].Text)
}

// ParseIdentification interprets the model's text answer. Markdown fences
// are stripped first; if the remainder is not valid JSON, the raw text is
// used as a name guess.
func ParseIdentification(text string) (*Identification, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var id Identification
	if err := json.Unmarshal([]byte(cleaned), &id); err != nil {
		// The model sometimes answers with plain text despite the
		// prompt. Treat it as a name guess.
		if cleaned == "" {
			return nil, fmt.Errorf("empty identification text")
		}
		return &Identification{Name: cleaned}, nil
	}

	if id.Error == "NO CARD" || id.Name == "" {
		return nil, ErrNoCard
	}

	id.CollectorNumber = strings.TrimSpace(id.CollectorNumber)
	return &id, nil
}
