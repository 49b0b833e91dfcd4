package stockauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// loginRequest is the body sent to the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the body returned by the Login endpoint. Message is only
// set on failures that still return a JSON body.
type loginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// errorResponse is the generic error body shape of the TechStock API.
type errorResponse struct {
	Message string `json:"message"`
}

// SessionManager owns the authentication lifecycle against the TechStock API:
// login, logout, token validation, and silent auto-login from remembered
// credentials.
//
// No public operation on SessionManager returns an error or panics. Transport
// failures, malformed responses, and rejected credentials all surface as an
// AuthResult, a bool, or a nil user, so callers only ever inspect a value.
type SessionManager struct {
	authBase   string
	creds      *CredentialStore
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSessionManager creates a session manager that talks to the auth
// endpoints under authBase (e.g. "https://host/api/Auth"). The given client
// must NOT route through the refresh transport: login and validation are the
// recovery path and may never recurse into it.
func NewSessionManager(authBase string, creds *CredentialStore, httpClient *http.Client, logger *slog.Logger) *SessionManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		authBase:   authBase,
		creds:      creds,
		httpClient: httpClient,
		logger:     logger,
	}
}

// LoginURL returns the absolute URL of the login endpoint.
func (s *SessionManager) LoginURL() string {
	return s.authBase + "/Login"
}

// Login authenticates with the given credentials. On success the token and
// email are persisted, and when rememberMe is set the credentials themselves
// are saved for later silent logins.
func (s *SessionManager) Login(email, password string, rememberMe bool) AuthResult {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return AuthResult{Message: fmt.Sprintf("failed to encode login request: %v", err)}
	}

	resp, err := s.httpClient.Post(s.LoginURL(), "application/json", bytes.NewReader(body))
	if err != nil {
		return AuthResult{Message: fmt.Sprintf("could not reach server: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return AuthResult{Message: fmt.Sprintf("failed to read server response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return AuthResult{Message: failureMessage(resp.StatusCode, data)}
	}

	var login loginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		return AuthResult{Message: "invalid response from server"}
	}
	if login.Token == "" {
		msg := login.Message
		if msg == "" {
			msg = "login failed"
		}
		return AuthResult{Message: msg}
	}

	// A failed persist degrades the session to this process only; the login
	// itself still succeeded.
	if err := s.creds.SetSession(login.Token, email); err != nil {
		s.logger.Warn("failed to persist session", "error", err)
	}
	if login.UserID != "" {
		if err := s.creds.SetUserID(login.UserID); err != nil {
			s.logger.Warn("failed to persist user id", "error", err)
		}
	}
	if rememberMe {
		if err := s.creds.SaveRememberMe(email, password); err != nil {
			s.logger.Warn("failed to save remembered credentials", "error", err)
		}
	}

	return AuthResult{Success: true}
}

// Logout drops the session. Remembered credentials survive a logout only if
// the remember-me flag was set at the time; otherwise they are wiped too.
// Logout never fails: secret store errors are logged and swallowed.
func (s *SessionManager) Logout() {
	remember := s.creds.RememberMeEnabled()
	if err := s.creds.ClearSession(); err != nil {
		s.logger.Warn("failed to clear session", "error", err)
	}
	if !remember {
		if err := s.creds.ClearRememberMe(); err != nil {
			s.logger.Warn("failed to clear remembered credentials", "error", err)
		}
	}
}

// TryRestoreAuthentication checks whether a stored token is still accepted by
// the server. Any failure, transport or rejection alike, logs the session out
// and returns false.
func (s *SessionManager) TryRestoreAuthentication() bool {
	token := s.creds.Token()
	if token == "" {
		return false
	}

	req, err := http.NewRequest(http.MethodGet, s.authBase+"/ValidateToken", nil)
	if err != nil {
		s.Logout()
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Info("token validation unreachable", "error", err)
		s.Logout()
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return true
	}
	// Note the cascade: Logout also wipes remembered credentials when the
	// remember-me flag is off.
	s.Logout()
	return false
}

// TryAutoLogin logs in silently with remembered credentials. A failed attempt
// treats the saved credentials as unrecoverable and clears them.
func (s *SessionManager) TryAutoLogin() bool {
	if !s.creds.RememberMeEnabled() {
		return false
	}
	email, password, ok := s.creds.SavedCredentials()
	if !ok {
		// Flag set without a credential pair violates the remember-me
		// invariant; reset it.
		if err := s.creds.ClearRememberMe(); err != nil {
			s.logger.Warn("failed to clear remembered credentials", "error", err)
		}
		return false
	}

	res := s.Login(email, password, true)
	if !res.Success {
		s.logger.Info("auto-login failed", "reason", res.Message)
		if err := s.creds.ClearRememberMe(); err != nil {
			s.logger.Warn("failed to clear remembered credentials", "error", err)
		}
		return false
	}
	return true
}

// CurrentUser decodes the signed-in identity from the stored token. Returns
// nil when no token is stored or the token cannot be decoded.
func (s *SessionManager) CurrentUser() *CurrentUser {
	token := s.creds.Token()
	if token == "" {
		return nil
	}
	user, err := userFromToken(token)
	if err != nil {
		s.logger.Warn("failed to decode stored token", "error", err)
		return nil
	}
	return user
}

// IsAuthenticated reports whether a token is currently stored.
func (s *SessionManager) IsAuthenticated() bool {
	return s.creds.Token() != ""
}

// IsRememberMeEnabled reports whether silent auto-login is enabled.
func (s *SessionManager) IsRememberMeEnabled() bool {
	return s.creds.RememberMeEnabled()
}

// failureMessage extracts the server's message field from an error body,
// falling back to a generic status line.
func failureMessage(status int, body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	return fmt.Sprintf("HTTP %d: %s", status, bytes.TrimSpace(body))
}
