package stockauth

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/techstock/stockauth/secrets"
)

// DefaultAuthPath is where the TechStock API mounts its auth controller.
const DefaultAuthPath = "/api/Auth"

// DefaultTimeout is the per-request timeout when none is configured. Each
// request carries its own fixed timeout; an in-flight login or refresh runs
// to completion or timeout regardless of the caller.
const DefaultTimeout = 30 * time.Second

// Client bundles the session core for one TechStock server: credential
// storage, session management, and an http.Client whose transport injects the
// bearer token and recovers from 401s.
type Client struct {
	baseURL  string
	authPath string
	logger   *slog.Logger
	timeout  time.Duration

	insecureTLS   bool
	baseTransport http.RoundTripper

	creds      *CredentialStore
	session    *SessionManager
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAuthPath overrides the auth controller mount path.
func WithAuthPath(path string) Option {
	return func(c *Client) {
		c.authPath = "/" + strings.Trim(path, "/")
	}
}

// WithTimeout sets the fixed per-request timeout for both API and auth calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets a custom base transport (connection pooling, proxies).
// The refresh handling is layered on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.baseTransport = rt
		}
	}
}

// WithLogger sets the logger used by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInsecureTLS disables TLS certificate verification. Only for local
// development against a self-signed emulator endpoint.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.insecureTLS = true
	}
}

// New creates a client for the TechStock API at baseURL, persisting session
// state in store.
func New(baseURL string, store secrets.Store, opts ...Option) *Client {
	// Normalize: keep scheme, host and any path prefix, drop trailing slash.
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimSuffix(u.Path, "/"))
	} else {
		baseURL = strings.TrimSuffix(baseURL, "/")
	}

	c := &Client{
		baseURL:  baseURL,
		authPath: DefaultAuthPath,
		logger:   slog.Default(),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseTransport == nil {
		if c.insecureTLS {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			c.baseTransport = t
		} else {
			c.baseTransport = http.DefaultTransport
		}
	}

	c.creds = NewCredentialStore(store, c.logger)

	// The session manager talks through the base transport directly so login
	// and validation never loop back into the refresh handling.
	authClient := &http.Client{Transport: c.baseTransport, Timeout: c.timeout}
	c.session = NewSessionManager(c.baseURL+c.authPath, c.creds, authClient, c.logger)

	c.httpClient = &http.Client{
		Transport: NewTransport(c.baseTransport, c.session, c.creds, c.logger),
		Timeout:   c.timeout,
	}

	return c
}

// BaseURL returns the normalized server URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session manager.
func (c *Client) Session() *SessionManager {
	return c.session
}

// Credentials returns the credential store.
func (c *Client) Credentials() *CredentialStore {
	return c.creds
}

// HTTPClient returns the http.Client with bearer injection and 401 recovery.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}
