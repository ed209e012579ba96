package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon-key" {
			http.Error(w, "missing api key", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/auth/v1/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"access_token": "tok-1",
				"refresh_token": "ref-1",
				"expires_in": 3600,
				"user": {"id": "user-1", "email": "a@b.c"}
			}`))
		case "/auth/v1/signup":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id": "user-2"}`))
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSignInSignOutNotifiesListeners(t *testing.T) {
	server := newAuthServer(t)
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, AnonKey: "anon-key"}, nil)

	var changes []*Identity
	p.OnChange(func(id *Identity) { changes = append(changes, id) })

	if p.Current() != nil {
		t.Fatal("expected guest identity initially")
	}

	id, err := p.SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if id.UserID != "user-1" || id.Email != "a@b.c" {
		t.Errorf("unexpected identity: %+v", id)
	}
	if cur := p.Current(); cur == nil || cur.UserID != "user-1" {
		t.Errorf("current identity not updated: %+v", cur)
	}

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if p.Current() != nil {
		t.Error("expected guest identity after sign out")
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 change notifications, got %d", len(changes))
	}
	if changes[0] == nil || changes[0].UserID != "user-1" {
		t.Errorf("first change should carry the new identity: %+v", changes[0])
	}
	if changes[1] != nil {
		t.Errorf("second change should be guest (nil), got %+v", changes[1])
	}
}

func TestSignInRejectedByService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	p := NewProvider(Config{BaseURL: server.URL, AnonKey: "k"}, nil)
	if _, err := p.SignIn(context.Background(), "a@b.c", "wrong"); err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if p.Current() != nil {
		t.Error("failed sign in must not set an identity")
	}
}

func TestFileSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewFileSessionStore(path, "local-pass")

	// Missing file is "no session", not an error.
	if s, err := store.Load(); err != nil || s != nil {
		t.Fatalf("expected (nil, nil) for missing file, got (%+v, %v)", s, err)
	}

	session := &Session{
		AccessToken: "tok",
		ExpiresAt:   9999999999,
		Identity:    Identity{UserID: "u-1", Email: "a@b.c"},
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.AccessToken != "tok" || loaded.Identity.UserID != "u-1" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if s, err := store.Load(); err != nil || s != nil {
		t.Fatalf("expected cleared store to be empty, got (%+v, %v)", s, err)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}

func TestRestoreSkipsExpiredSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")
	store := NewFileSessionStore(path, "pass")
	if err := store.Save(&Session{
		AccessToken: "tok",
		ExpiresAt:   1, // long past
		Identity:    Identity{UserID: "u-1"},
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	p := NewProvider(Config{}, store)
	if err := p.Restore(); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if p.Current() != nil {
		t.Error("expired session must not be restored")
	}
}
