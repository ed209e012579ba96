package storage

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"access_token":"abc","user_id":"u-1"}`)

	encrypted, err := EncryptData(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}

	decrypted, err := DecryptData(encrypted, "correct horse")
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip mismatch: got %q", decrypted)
	}
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	encrypted, err := EncryptData([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if _, err := DecryptData(encrypted, "wrong"); err == nil {
		t.Fatal("expected decryption to fail with wrong passphrase")
	}
}

func TestDecryptTruncatedDataFails(t *testing.T) {
	if _, err := DecryptData([]byte("too short"), "pw"); err == nil {
		t.Fatal("expected error for truncated data")
	}
}

func TestEncryptRequiresPassphrase(t *testing.T) {
	if _, err := EncryptData([]byte("x"), ""); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
}
