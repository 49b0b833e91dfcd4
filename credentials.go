package stockauth

import (
	"fmt"
	"log/slog"

	"github.com/techstock/stockauth/secrets"
)

// Secret store keys used by the session core.
const (
	KeyAuthToken     = "auth_token"
	KeyUserID        = "user_id"
	KeyUserEmail     = "user_email"
	KeyUserName      = "user_name"
	KeySavedEmail    = "saved_email"
	KeySavedPassword = "saved_password"
	KeyRememberMe    = "remember_me"
)

// rememberMeTrue is the canonical value for an enabled remember-me flag.
// The flag is compared against this value, not checked for mere presence.
const rememberMeTrue = "true"

// CredentialStore reads and writes the persisted session state through a
// secrets.Store. Read failures are treated as "value absent" and write
// failures are logged and swallowed: a broken platform keystore degrades the
// session to anonymous instead of crashing the caller.
type CredentialStore struct {
	store  secrets.Store
	logger *slog.Logger
}

// NewCredentialStore wraps a secrets.Store. A nil logger defaults to
// slog.Default().
func NewCredentialStore(store secrets.Store, logger *slog.Logger) *CredentialStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialStore{store: store, logger: logger}
}

// Token returns the stored bearer token, or "" when absent or unreadable.
func (c *CredentialStore) Token() string {
	return c.get(KeyAuthToken)
}

// SetSession persists the token and the signed-in email. Both writes must
// succeed for SetSession to report success.
func (c *CredentialStore) SetSession(token, email string) error {
	if err := c.store.Set(KeyAuthToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := c.store.Set(KeyUserEmail, email); err != nil {
		return fmt.Errorf("failed to store email: %w", err)
	}
	return nil
}

// SetUserID persists the server-assigned user id from a login response.
func (c *CredentialStore) SetUserID(id string) error {
	if err := c.store.Set(KeyUserID, id); err != nil {
		return fmt.Errorf("failed to store user id: %w", err)
	}
	return nil
}

// SaveRememberMe persists the login credentials and enables the remember-me
// flag so a future process can log in silently.
func (c *CredentialStore) SaveRememberMe(email, password string) error {
	if err := c.store.Set(KeySavedEmail, email); err != nil {
		return fmt.Errorf("failed to store saved email: %w", err)
	}
	if err := c.store.Set(KeySavedPassword, password); err != nil {
		return fmt.Errorf("failed to store saved password: %w", err)
	}
	if err := c.store.Set(KeyRememberMe, rememberMeTrue); err != nil {
		return fmt.Errorf("failed to store remember-me flag: %w", err)
	}
	return nil
}

// ClearRememberMe removes the saved credentials and the remember-me flag.
// Safe to call when nothing is stored.
func (c *CredentialStore) ClearRememberMe() error {
	var firstErr error
	for _, key := range []string{KeySavedEmail, KeySavedPassword, KeyRememberMe} {
		if err := c.store.Remove(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return firstErr
}

// ClearSession removes the token and the signed-in identity. Remembered
// credentials are preserved; callers that want them gone call ClearRememberMe
// separately.
func (c *CredentialStore) ClearSession() error {
	var firstErr error
	for _, key := range []string{KeyAuthToken, KeyUserID, KeyUserEmail, KeyUserName} {
		if err := c.store.Remove(key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return firstErr
}

// RememberMeEnabled reports whether the remember-me flag is set to its
// canonical true value.
func (c *CredentialStore) RememberMeEnabled() bool {
	return c.get(KeyRememberMe) == rememberMeTrue
}

// SavedCredentials returns the remembered email and password. ok is false
// unless both are present.
func (c *CredentialStore) SavedCredentials() (email, password string, ok bool) {
	email = c.get(KeySavedEmail)
	password = c.get(KeySavedPassword)
	return email, password, email != "" && password != ""
}

// UserEmail returns the signed-in email, or "" when absent.
func (c *CredentialStore) UserEmail() string {
	return c.get(KeyUserEmail)
}

// get reads a key, treating store failures as absent.
func (c *CredentialStore) get(key string) string {
	v, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("secret store read failed", "key", key, "error", err)
		return ""
	}
	return v
}
