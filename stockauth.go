// Package stockauth implements the authenticated-session core for the
// TechStock inventory API.
//
// The package separates the session lifecycle into three layers: credential
// storage, session management, and transport.
//
// # Architecture
//
// CredentialStore: persists the bearer token, the signed-in user's identity,
// and (opt-in) remembered login credentials through a secrets.Store.
//
// SessionManager: owns login, logout, token validation, and silent auto-login
// from remembered credentials. Every public operation returns a result value;
// none of them propagates an error or panic to the caller.
//
// Transport: an http.RoundTripper that attaches the stored bearer token to
// every outgoing request and transparently recovers from a 401 by running a
// single coordinated re-login and retrying the request exactly once.
//
// # Basic Usage
//
//	store, err := keyring.Open("", passphrase)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := stockauth.New("https://api.techstock.example.com", store)
//
//	res := client.Session().Login("staff@example.com", "secret", true)
//	if !res.Success {
//	    fmt.Println("login failed:", res.Message)
//	    return
//	}
//
//	// All requests through this client carry the bearer token and are
//	// retried once after a silent re-login when the token expires.
//	resp, err := client.HTTPClient().Get(client.BaseURL() + "/api/Products")
package stockauth

// AuthResult is the outcome of a login attempt. Message carries the
// server-provided or transport-level failure description when Success is
// false; it is empty on success.
type AuthResult struct {
	Success bool
	Message string
}

// CurrentUser is the identity decoded from the stored bearer token. It is
// recomputed from the token on demand and never persisted.
type CurrentUser struct {
	ID       string
	UserName string
	Roles    []string
}

// HasRole reports whether the user carries the given role claim.
func (u *CurrentUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
