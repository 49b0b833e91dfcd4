// Package stubserver implements a small fake of the TechStock REST API for
// local development and tests. It serves the two auth endpoints the session
// core depends on plus a protected product listing, issues real HS256 JWTs,
// and can revoke everything it issued to simulate server-side token expiry.
package stubserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Claim URIs as written by the real API.
const (
	claimEmail  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimRole   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimNameID = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
)

// User is an account known to the stub.
type User struct {
	ID       string
	Email    string
	Password string
	Roles    []string
}

// Product is a row of the protected inventory listing.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Supplier string `json:"supplier"`
}

// Server is a fake TechStock API.
type Server struct {
	mu       sync.Mutex
	users    map[string]*User // keyed by email
	issued   map[string]bool  // tokens still accepted
	products []Product

	secret   []byte
	tokenTTL time.Duration

	loginCalls atomic.Int32
}

// New creates a stub with a random signing secret and a one hour token TTL.
func New() *Server {
	return &Server{
		users:    make(map[string]*User),
		issued:   make(map[string]bool),
		secret:   []byte(uuid.NewString()),
		tokenTTL: time.Hour,
		products: []Product{
			{ID: uuid.NewString(), Name: "ThinkPad T14", Quantity: 12, Supplier: "Lenovo"},
			{ID: uuid.NewString(), Name: "USB-C Dock", Quantity: 40, Supplier: "Dell"},
			{ID: uuid.NewString(), Name: "27\" Monitor", Quantity: 7, Supplier: "LG"},
		},
	}
}

// AddUser registers an account and returns its generated id.
func (s *Server) AddUser(email, password string, roles ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[email] = &User{ID: id, Email: email, Password: password, Roles: roles}
	return id
}

// SetPassword changes an account's password, invalidating any remembered
// credential pair a client may hold.
func (s *Server) SetPassword(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.Password = password
	}
}

// RevokeAll invalidates every token issued so far. Subsequent requests with
// an old token get a 401 until the client logs in again.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = make(map[string]bool)
}

// LoginCalls returns how many requests hit the login endpoint.
func (s *Server) LoginCalls() int32 {
	return s.loginCalls.Load()
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/Auth/Login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/Auth/ValidateToken", s.requireToken(s.handleValidate)).Methods(http.MethodGet)
	r.HandleFunc("/api/Products", s.requireToken(s.handleProducts)).Methods(http.MethodGet)
	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || user.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to issue token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":  token,
		"userId": user.ID,
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := make([]Product, len(s.products))
	copy(products, s.products)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, products)
}

// requireToken rejects requests whose bearer token is missing, forged,
// expired, or revoked.
func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || tokenString == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}

		s.mu.Lock()
		live := s.issued[tokenString]
		s.mu.Unlock()
		if !live {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token revoked"})
			return
		}

		next(w, r)
	}
}

func (s *Server) issueToken(user *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       user.ID,
		"iss":       "TechStock-Stub",
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
		"jti":       uuid.NewString(),
		claimEmail:  user.Email,
		claimNameID: user.ID,
	}
	switch len(user.Roles) {
	case 0:
	case 1:
		claims[claimRole] = user.Roles[0]
	default:
		roles := make([]any, len(user.Roles))
		for i, r := range user.Roles {
			roles[i] = r
		}
		claims[claimRole] = roles
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.issued[token] = true
	s.mu.Unlock()
	return token, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
