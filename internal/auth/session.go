package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cardbinder/cardbinder/internal/storage"
)

// FileSessionStore persists the session to a single file, encrypted at
// rest with a local passphrase.
type FileSessionStore struct {
	path       string
	passphrase string
}

// NewFileSessionStore creates a store writing to path. The passphrase is
// machine-local; losing it only means signing in again.
func NewFileSessionStore(path, passphrase string) *FileSessionStore {
	return &FileSessionStore{path: path, passphrase: passphrase}
}

// Load reads and decrypts the stored session. A missing file means no
// session and returns (nil, nil).
func (s *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	plaintext, err := storage.DecryptData(data, s.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &session, nil
}

// Save encrypts and writes the session.
func (s *FileSessionStore) Save(session *Session) error {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	encrypted, err := storage.EncryptData(plaintext, s.passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, encrypted, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. A missing file is not an error.
func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Ensure FileSessionStore satisfies the store contract.
var _ SessionStore = (*FileSessionStore)(nil)
