// Package auth talks to the hosted authentication service and tracks the
// current identity. Session changes (sign in, sign out, restored session)
// are the trigger for collection state re-initialization.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// Identity is the authenticated user, or absent for guest sessions.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Session holds the tokens and identity of a signed-in user.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    int64    `json:"expires_at"` // epoch seconds
	Identity     Identity `json:"identity"`
}

// Expired reports whether the session's access token has lapsed.
func (s *Session) Expired() bool {
	return s.ExpiresAt > 0 && time.Now().Unix() >= s.ExpiresAt
}

// Config configures the auth provider client.
type Config struct {
	// BaseURL is the hosted auth endpoint (project URL).
	BaseURL string `toml:"base_url"`

	// AnonKey is the public API key sent with every request.
	AnonKey string `toml:"anon_key"`
}

// ChangeListener is invoked after every session change with the new
// identity, or nil for guest.
type ChangeListener func(identity *Identity)

// Provider is the authentication client. It keeps the current session in
// memory and optionally persists it through a SessionStore.
type Provider struct {
	config     Config
	httpClient *http.Client
	store      SessionStore

	mu        sync.RWMutex
	session   *Session
	listeners []ChangeListener
}

// SessionStore persists a session across restarts. Implementations must
// tolerate a missing session (return nil, nil).
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// NewProvider creates an auth provider. store may be nil to disable
// session persistence.
func NewProvider(config Config, store SessionStore) *Provider {
	return &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
	}
}

// OnChange registers a listener for session changes. Listeners run
// synchronously in registration order.
func (p *Provider) OnChange(fn ChangeListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Current returns the current identity, or nil for a guest session.
func (p *Provider) Current() *Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return nil
	}
	id := p.session.Identity
	return &id
}

// AccessToken returns the current bearer token, or "" for guests.
func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return ""
	}
	return p.session.AccessToken
}

// Restore loads a persisted session, if one exists and has not expired,
// and notifies listeners. Called once at startup.
func (p *Provider) Restore() error {
	if p.store == nil {
		return nil
	}
	session, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.Expired() {
		return nil
	}

	p.setSession(session)
	return nil
}

// tokenResponse is the password-grant response shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn authenticates with email and password and makes the returned
// identity current.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := p.post(ctx, "/auth/v1/token?grant_type=password",
		map[string]string{"email": email, "password": password}, "")
	if err != nil {
		return nil, err
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	session := &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Unix() + tr.ExpiresIn,
		Identity:     Identity{UserID: tr.User.ID, Email: tr.User.Email},
	}
	p.setSession(session)

	id := session.Identity
	return &id, nil
}

// SignUp registers a new account. Depending on the service's confirmation
// policy the account may need email verification before SignIn succeeds.
func (p *Provider) SignUp(ctx context.Context, email, password string) error {
	_, err := p.post(ctx, "/auth/v1/signup",
		map[string]string{"email": email, "password": password}, "")
	return err
}

// SignOut revokes the current session and reverts to guest. Revocation
// failures are ignored beyond reporting: the local session is cleared
// regardless.
func (p *Provider) SignOut(ctx context.Context) error {
	token := p.AccessToken()
	var revokeErr error
	if token != "" {
		_, revokeErr = p.post(ctx, "/auth/v1/logout", nil, token)
	}

	p.setSession(nil)
	return revokeErr
}

// setSession swaps the current session, persists it, and notifies
// listeners.
func (p *Provider) setSession(session *Session) {
	p.mu.Lock()
	p.session = session
	listeners := make([]ChangeListener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	if p.store != nil {
		var err error
		if session == nil {
			err = p.store.Clear()
		} else {
			err = p.store.Save(session)
		}
		if err != nil {
			// Persistence is best-effort; the in-memory session stands.
			log.Printf("[Auth] failed to persist session: %v", err)
		}
	}

	var id *Identity
	if session != nil {
		copied := session.Identity
		id = &copied
	}
	for _, fn := range listeners {
		fn(id)
	}
}

func (p *Provider) post(ctx context.Context, path string, payload any, bearer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.config.AnonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("auth service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
