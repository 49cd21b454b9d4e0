// Package session issues admin tokens and guards the mutating API routes.
package session

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidPassword is returned by Login on a wrong password.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrLoginDisabled is returned when no password is configured.
	ErrLoginDisabled = errors.New("login disabled")
)

// Manager keeps the issued tokens in memory.
type Manager struct {
	password []byte
	hash     []byte
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewManager accepts either a plain password or a bcrypt hash. The hash
// wins when both are set.
func NewManager(password, passwordHash string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	m := &Manager{ttl: ttl, now: time.Now, tokens: make(map[string]time.Time)}
	if passwordHash != "" {
		m.hash = []byte(passwordHash)
	} else if password != "" {
		m.password = []byte(password)
	}
	return m
}

// Enabled reports whether a password is configured.
func (m *Manager) Enabled() bool { return len(m.hash) > 0 || len(m.password) > 0 }

func (m *Manager) check(password string) error {
	switch {
	case len(m.hash) > 0:
		if err := bcrypt.CompareHashAndPassword(m.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
	case len(m.password) > 0:
		if subtle.ConstantTimeCompare(m.password, []byte(password)) != 1 {
			return ErrInvalidPassword
		}
	default:
		return ErrLoginDisabled
	}
	return nil
}

// Login issues a new token valid for the configured TTL.
func (m *Manager) Login(password string) (string, time.Time, error) {
	if err := m.check(password); err != nil {
		return "", time.Time{}, err
	}
	token := uuid.NewString()
	now := m.now()
	expires := now.Add(m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, exp := range m.tokens {
		if !now.Before(exp) {
			delete(m.tokens, t)
		}
	}
	m.tokens[token] = expires
	return token, expires, nil
}

// Valid reports whether token was issued and has not expired.
func (m *Manager) Valid(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.tokens[token]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.tokens, token)
		return false
	}
	return true
}

// Logout revokes token.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}

// Require rejects requests without a valid "Bearer <token>" header.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearer(r)
		if !ok || !m.Valid(token) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return token, ok && token != ""
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool       `json:"success"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// LoginHandler serves POST /api/login.
func (m *Manager) LoginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, loginResponse{Message: "invalid request body"})
			return
		}
		token, exp, err := m.Login(req.Password)
		switch {
		case errors.Is(err, ErrLoginDisabled):
			writeJSON(w, http.StatusForbidden, loginResponse{Message: "login disabled"})
		case err != nil:
			writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid password"})
		default:
			writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: token, ExpiresAt: &exp})
		}
	})
}

// LogoutHandler serves POST /api/logout.
func (m *Manager) LogoutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearer(r); ok {
			m.Logout(token)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
