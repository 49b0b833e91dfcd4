package stockauth

import (
	"errors"

	"golang.org/x/oauth2"
)

// ErrNotAuthenticated is returned by the token source when no token is
// stored.
var ErrNotAuthenticated = errors.New("stockauth: not authenticated")

// TokenSource adapts the session to oauth2.TokenSource so oauth2-aware
// consumers (gRPC credentials, Google API clients) can reuse the stored
// bearer token. The store is consulted on every call, so a refresh performed
// by the transport is picked up automatically.
func (s *SessionManager) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s: s}
}

type sessionTokenSource struct {
	s *SessionManager
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	token := ts.s.creds.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
