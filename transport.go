package stockauth

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
)

// Transport is an http.RoundTripper that attaches the stored bearer token to
// every request and transparently recovers from server-side token expiry.
//
// On a 401 it runs a coordinated re-login with the remembered credentials and
// resends the original request exactly once with the fresh token. Requests to
// the login endpoint itself are never retried, so bad credentials cannot
// recurse. At most one network-visible re-login runs per expiry event, no
// matter how many requests hit the 401 concurrently.
type Transport struct {
	base    http.RoundTripper
	session *SessionManager
	creds   *CredentialStore
	logger  *slog.Logger

	loginURL *url.URL

	// mu guards refreshing. The flag, not the lock, is what serializes the
	// refresh: the login itself runs outside the critical section so
	// concurrent 401 handlers are not blocked behind it.
	mu         sync.Mutex
	refreshing bool
}

// NewTransport wraps base with bearer injection and 401 recovery. A nil base
// uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, session *SessionManager, creds *CredentialStore, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	loginURL, err := url.Parse(session.LoginURL())
	if err != nil {
		// Leave loginURL nil; isLoginRequest then never matches and the
		// malformed base URL will fail loudly on the first request instead.
		loginURL = nil
	}
	return &Transport{
		base:     base,
		session:  session,
		creds:    creds,
		logger:   logger,
		loginURL: loginURL,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(t.withBearer(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || t.isLoginRequest(req) {
		return resp, nil
	}

	if !t.tryRefresh() {
		// Recovery failed; hand the original 401 back untouched.
		return resp, nil
	}

	retry, ok := t.rewind(req)
	if !ok {
		// Body already consumed and not replayable; the original response is
		// the best we can do.
		return resp, nil
	}
	resp.Body.Close()

	// One retry with the re-read token, whatever its outcome.
	return t.base.RoundTrip(t.withBearer(retry))
}

// withBearer clones req with the stored token as Authorization header. The
// token is read from the credential store on every request so a refresh by
// any goroutine is immediately visible to all others.
func (t *Transport) withBearer(req *http.Request) *http.Request {
	token := t.creds.Token()
	if token == "" {
		return req
	}
	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+token)
	return req2
}

// rewind produces a replayable copy of req. Requests without a body (or with
// a GetBody rewinder, which net/http sets for all common body types) can be
// resent; anything else cannot.
func (t *Transport) rewind(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

// isLoginRequest reports whether req targets the login endpoint.
func (t *Transport) isLoginRequest(req *http.Request) bool {
	if t.loginURL == nil {
		return false
	}
	return req.URL.Host == t.loginURL.Host && req.URL.Path == t.loginURL.Path
}

// tryRefresh performs the coordinated re-login. Exactly one caller runs the
// login; every caller that arrives while it is in flight returns true
// immediately, assuming the in-flight attempt will succeed.
//
// That assumption is a deliberate approximation: a caller may retry with a
// token that turns out to still be invalid when the in-flight login fails,
// costing one wasted request. A stricter implementation would await the
// in-flight outcome instead.
func (t *Transport) tryRefresh() bool {
	t.mu.Lock()
	if t.refreshing {
		t.mu.Unlock()
		return true
	}
	t.refreshing = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.refreshing = false
		t.mu.Unlock()
	}()

	if !t.creds.RememberMeEnabled() {
		return false
	}
	email, password, ok := t.creds.SavedCredentials()
	if !ok {
		return false
	}

	res := t.session.Login(email, password, true)
	if !res.Success {
		// The saved credentials no longer work; drop them so we stop
		// hammering the login endpoint on every 401.
		t.logger.Info("token refresh failed", "reason", res.Message)
		if err := t.creds.ClearRememberMe(); err != nil {
			t.logger.Warn("failed to clear remembered credentials", "error", err)
		}
		return false
	}

	t.logger.Debug("token refreshed after 401")
	return true
}
