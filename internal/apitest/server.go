// Package apitest runs an in-process fake of the CloudStocks REST API for
// tests. It mirrors the public server's routes, payload shapes and error
// bodies closely enough to exercise the client end to end.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Stock is a listed company.
type Stock struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Industry string `json:"industry"`
}

// Quote is one day of price history as served by the API.
type Quote struct {
	Timestamp string  `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Industry  string  `json:"industry"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volumes   int64   `json:"volumes"`
}

// Request is a request observed by the fake server.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	RequestID     string
}

// Secret signs every token the fake server issues.
var Secret = []byte("cloudstocks-test-secret")

// Server is the fake API. Fields may be adjusted between requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	stocks   []Stock
	history  map[string][]Quote // symbol -> quotes, oldest first
	users    map[string][]byte  // email -> bcrypt hash
	requests []Request

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

// NewServer starts a fake API seeded with Fixtures.
func NewServer() *Server {
	s := &Server{
		stocks:   append([]Stock(nil), FixtureStocks...),
		history:  make(map[string][]Quote),
		users:    make(map[string][]byte),
		TokenTTL: 24 * time.Hour,
	}
	for sym, quotes := range FixtureHistory() {
		s.history[sym] = quotes
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/user/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/user/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/stocks/symbols", s.handleSymbols).Methods("GET")
	r.HandleFunc("/stocks/authed/{symbol}", s.handleAuthed).Methods("GET")
	r.HandleFunc("/stocks/{symbol}", s.handleLatest).Methods("GET")
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// AddUser registers a user directly, bypassing the HTTP route.
func (s *Server) AddUser(email, password string) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.mu.Lock()
	s.users[email] = hash
	s.mu.Unlock()
}

// SetHistory replaces the quotes served for symbol.
func (s *Server) SetHistory(symbol string, quotes []Quote) {
	s.mu.Lock()
	s.history[symbol] = quotes
	s.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// MintToken returns an HS256 token for email that expires at exp.
func MintToken(email string, exp time.Time) string {
	claims := jwt.MapClaims{
		"email": email,
		"exp":   exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "Request body incomplete, both email and password are required")
		return
	}
	s.mu.Lock()
	_, exists := s.users[c.Email]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusConflict, "User already exists!")
		return
	}
	s.AddUser(c.Email, c.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "User created"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "Request body incomplete, both email and password are required")
		return
	}
	s.mu.Lock()
	hash, ok := s.users[c.Email]
	ttl := s.TokenTTL
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(c.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      MintToken(c.Email, time.Now().Add(ttl)),
		"token_type": "Bearer",
		"expires_in": int(ttl.Seconds()),
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for k := range q {
		if k != "industry" {
			writeError(w, http.StatusBadRequest, "Invalid query parameter: only 'industry' is permitted")
			return
		}
	}
	industry := strings.ToLower(q.Get("industry"))

	s.mu.Lock()
	var out []Stock
	for _, st := range s.stocks {
		if industry == "" || strings.Contains(strings.ToLower(st.Industry), industry) {
			out = append(out, st)
		}
	}
	s.mu.Unlock()

	switch len(out) {
	case 0:
		writeError(w, http.StatusNotFound, "Industry sector not found")
	case 1:
		// The public API returns a bare object for a unique match.
		writeJSON(w, http.StatusOK, out[0])
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if len(r.URL.Query()) > 0 {
		writeError(w, http.StatusBadRequest, "Date parameters only available on authenticated route /stocks/authed")
		return
	}
	s.mu.Lock()
	quotes := s.history[symbol]
	s.mu.Unlock()
	if len(quotes) == 0 {
		writeError(w, http.StatusNotFound, "No entry for symbol in stocks database")
		return
	}
	writeJSON(w, http.StatusOK, quotes[len(quotes)-1])
}

func (s *Server) handleAuthed(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		writeError(w, http.StatusForbidden, "Authorization header not found")
		return
	}
	_, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(*jwt.Token) (any, error) {
		return Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		writeError(w, http.StatusForbidden, "Authorization token is invalid or has expired")
		return
	}

	symbol := mux.Vars(r)["symbol"]
	s.mu.Lock()
	quotes := append([]Quote(nil), s.history[symbol]...)
	s.mu.Unlock()
	if len(quotes) == 0 {
		writeError(w, http.StatusNotFound, "No entry for symbol in stocks database")
		return
	}

	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		writeJSON(w, http.StatusOK, quotes[len(quotes)-1])
		return
	}

	var out []Quote
	for _, qt := range quotes {
		day := qt.Timestamp[:10]
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		out = append(out, qt)
	}
	if len(out) == 0 {
		writeError(w, http.StatusNotFound, "No entries available in date range")
		return
	}
	// Newest first, as the public server orders them.
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": true, "message": msg})
}
