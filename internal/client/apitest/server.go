// Package apitest runs an in-process fake of the promstudy backend for
// tests. It speaks the same JSON as the real API, issues HS256 JWTs, and
// lets tests inject failures per endpoint.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/promstudy/promstudy/internal/client/models"
)

var signingKey = []byte("apitest-signing-key")

// userCreate and userResponse mirror the backend's pydantic schemas. They
// are declared here rather than reused from models so that a client-side
// tag change shows up as a wire mismatch in tests.
type userCreate struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	School    string `json:"school"`
	StudentID string `json:"studentId"`
}

type userResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Gender    *string `json:"gender"`
	Age       *string `json:"age"`
	School    *string `json:"school"`
	StudentID *string `json:"studentId"`
}

type account struct {
	password string
	profile  models.UserProfile
}

func responseOf(p models.UserProfile) userResponse {
	opt := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	return userResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Name:      opt(p.Name),
		Gender:    opt(p.Gender),
		Age:       opt(p.Age),
		School:    opt(p.School),
		StudentID: opt(p.StudentID),
	}
}

// Server is a fake backend. Set the exported fields before issuing
// requests; handlers read them under the server's lock.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account
	nextID   int64
	revoked  map[string]bool
	calls    map[string]int

	// PromptCount and TotalLikes are served by the stats endpoints.
	PromptCount int64
	TotalLikes  int64
	// FailStats makes both stats endpoints answer 500.
	FailStats bool
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		revoked:  make(map[string]bool),
		calls:    make(map[string]int),
		TokenTTL: 30 * time.Minute,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countCalls)
	r.Post("/token", s.handleToken)
	r.Post("/signup", s.handleSignup)
	r.Get("/users/me", s.handleMe)
	r.Route("/stats/prompts", func(r chi.Router) {
		r.Get("/count", s.handleStat(func() int64 { return s.PromptCount }))
		r.Get("/total-likes", s.handleStat(func() int64 { return s.TotalLikes }))
	})
	return r
}

// AddUser registers an account directly and returns its profile.
func (s *Server) AddUser(email, password string, fields models.ProfileFields) models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(email, email, password, fields)
}

// Revoke makes the backend reject token from now on.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// Calls reports how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// IssueToken signs a token for username that expires at exp.
func IssueToken(username string, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) addLocked(username, email, password string, fields models.ProfileFields) models.UserProfile {
	s.nextID++
	p := models.UserProfile{
		ID:        s.nextID,
		Username:  username,
		Email:     email,
		Name:      fields.Name,
		Gender:    fields.Gender,
		Age:       fields.Age,
		School:    fields.School,
		StudentID: fields.StudentID,
		IsActive:  true,
		CreatedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
	}
	s.accounts[username] = &account{password: password, profile: p}
	return p
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "malformed body")
		return
	}

	s.mu.Lock()
	acc := s.findLocked(creds.Username)
	ttl := s.TokenTTL
	s.mu.Unlock()

	if acc == nil || acc.password != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": IssueToken(acc.profile.Username, time.Now().Add(ttl)),
		"token_type":   "bearer",
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req userCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "malformed body")
		return
	}
	for _, v := range []string{req.Username, req.Email, req.Password, req.Name, req.Gender, req.Age, req.School, req.StudentID} {
		if v == "" {
			writeDetail(w, http.StatusUnprocessableEntity, "Field required")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.Username]; ok {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	if s.findLocked(req.Email) != nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	p := s.addLocked(req.Username, req.Email, req.Password, models.ProfileFields{
		Name:      req.Name,
		Gender:    req.Gender,
		Age:       req.Age,
		School:    req.School,
		StudentID: req.StudentID,
	})
	writeJSON(w, http.StatusCreated, responseOf(p))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || s.revoked[raw] {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	acc, ok := s.accounts[claims.Subject]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	writeJSON(w, http.StatusOK, responseOf(acc.profile))
}

func (s *Server) handleStat(value func() int64) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		fail, v := s.FailStats, value()
		s.mu.Unlock()
		if fail {
			writeDetail(w, http.StatusInternalServerError, "stats unavailable")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// findLocked looks an account up by username or email.
func (s *Server) findLocked(identifier string) *account {
	if acc, ok := s.accounts[identifier]; ok {
		return acc
	}
	for _, acc := range s.accounts {
		if acc.profile.Email == identifier {
			return acc
		}
	}
	return nil
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
