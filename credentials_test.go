package stockauth

import (
	"errors"
	"testing"

	"github.com/techstock/stockauth/secrets"
)

func TestCredentialStore_SetSession(t *testing.T) {
	store := secrets.NewMemoryStore()
	creds := NewCredentialStore(store, nil)

	if err := creds.SetSession("tok-1", "a@x.com"); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}

	if got := creds.Token(); got != "tok-1" {
		t.Errorf("Token() = %v, want tok-1", got)
	}
	if got := creds.UserEmail(); got != "a@x.com" {
		t.Errorf("UserEmail() = %v, want a@x.com", got)
	}
}

func TestCredentialStore_RememberMe(t *testing.T) {
	store := secrets.NewMemoryStore()
	creds := NewCredentialStore(store, nil)

	if creds.RememberMeEnabled() {
		t.Error("RememberMeEnabled() = true on empty store")
	}

	if err := creds.SaveRememberMe("a@x.com", "p"); err != nil {
		t.Fatalf("SaveRememberMe() error = %v", err)
	}
	if !creds.RememberMeEnabled() {
		t.Error("RememberMeEnabled() = false after SaveRememberMe")
	}

	email, password, ok := creds.SavedCredentials()
	if !ok || email != "a@x.com" || password != "p" {
		t.Errorf("SavedCredentials() = (%v, %v, %v), want (a@x.com, p, true)", email, password, ok)
	}

	if err := creds.ClearRememberMe(); err != nil {
		t.Fatalf("ClearRememberMe() error = %v", err)
	}
	if creds.RememberMeEnabled() {
		t.Error("RememberMeEnabled() = true after ClearRememberMe")
	}
	if _, _, ok := creds.SavedCredentials(); ok {
		t.Error("SavedCredentials() ok = true after ClearRememberMe")
	}

	// Idempotent on an empty store.
	if err := creds.ClearRememberMe(); err != nil {
		t.Errorf("ClearRememberMe() on cleared store error = %v", err)
	}
}

func TestCredentialStore_RememberMeFlagIsValueChecked(t *testing.T) {
	// A present-but-wrong flag value must read as disabled.
	store := secrets.NewMemoryStore()
	store.Set(KeyRememberMe, "1")

	creds := NewCredentialStore(store, nil)
	if creds.RememberMeEnabled() {
		t.Error("RememberMeEnabled() = true for non-canonical flag value")
	}
}

func TestCredentialStore_ClearSessionPreservesRememberMe(t *testing.T) {
	store := secrets.NewMemoryStore()
	creds := NewCredentialStore(store, nil)

	creds.SetSession("tok", "a@x.com")
	creds.SetUserID("42")
	creds.SaveRememberMe("a@x.com", "p")

	if err := creds.ClearSession(); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}

	if got := creds.Token(); got != "" {
		t.Errorf("Token() = %v after ClearSession, want empty", got)
	}
	snap := store.Snapshot()
	for _, key := range []string{KeyAuthToken, KeyUserID, KeyUserEmail, KeyUserName} {
		if _, ok := snap[key]; ok {
			t.Errorf("key %s still present after ClearSession", key)
		}
	}
	if !creds.RememberMeEnabled() {
		t.Error("ClearSession wiped the remember-me flag")
	}
	if _, _, ok := creds.SavedCredentials(); !ok {
		t.Error("ClearSession wiped the saved credentials")
	}
}

// brokenStore fails every operation, standing in for an unavailable platform
// keystore.
type brokenStore struct{}

func (brokenStore) Get(key string) (string, error) { return "", errors.New("keystore unavailable") }
func (brokenStore) Set(key, value string) error    { return errors.New("keystore unavailable") }
func (brokenStore) Remove(key string) error        { return errors.New("keystore unavailable") }

func TestCredentialStore_BrokenStoreReadsAsAbsent(t *testing.T) {
	creds := NewCredentialStore(brokenStore{}, nil)

	if got := creds.Token(); got != "" {
		t.Errorf("Token() = %v on broken store, want empty", got)
	}
	if creds.RememberMeEnabled() {
		t.Error("RememberMeEnabled() = true on broken store")
	}
	if _, _, ok := creds.SavedCredentials(); ok {
		t.Error("SavedCredentials() ok = true on broken store")
	}
}
