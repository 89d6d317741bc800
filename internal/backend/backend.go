// Package backend is the front-end's client for the bakery API. It exposes the
// authentication surface the session store and the page handlers need; every
// network effect of the application funnels through the Backend interface.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ProbeStatus is the outcome of a lightweight session liveness check.
type ProbeStatus int

const (
	// ProbeUnknown covers transport failures and 5xx answers. Callers are
	// expected to fail open on it.
	ProbeUnknown ProbeStatus = iota
	ProbeOK
	ProbeUnauthorized
)

// APIError is a failed backend call: a machine-readable code and a
// human-readable message, plus the HTTP status when one was received.
// Transport failures carry code NETWORK_ERROR and no status.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("backend: %s (%s)", e.Message, e.Code)
}

// NetworkErrorMessage is the generic text surfaced for transport failures.
const NetworkErrorMessage = "Network error occurred"

// IsUnauthorized reports whether err is a backend rejection of the session
// credential. Per the error-handling rules this must force a sign-out, never
// be shown as a form error.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Code == "UNAUTHORIZED"
	}
	return false
}

// AuthResult is the payload of a successful sign-in or sign-up. User is the
// raw server shape; normalization happens at ingestion in the session store.
type AuthResult struct {
	User      map[string]any
	SessionID string
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Backend is the authentication surface of the bakery API.
type Backend interface {
	SignUp(ctx context.Context, email, password, name string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	SignOut(ctx context.Context) error
	GetProfile(ctx context.Context) (map[string]any, error)
	UpdateProfile(ctx context.Context, upd ProfileUpdate) (map[string]any, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerificationEmail(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ProbeSessionAlive(ctx context.Context) ProbeStatus
}

// TokenStore binds the session credential to backend calls. The web layer
// implements it over an HttpOnly cookie; MemoryTokenStore backs tests and
// one-shot tools. Sign-in captures the issued sessionId into the store and
// sign-out clears it, so the binding mechanism stays outside the core.
type TokenStore interface {
	Token() string
	SetToken(token string)
	ClearToken()
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu  sync.Mutex
	tok string
}

func (m *MemoryTokenStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok
}

func (m *MemoryTokenStore) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = token
}

func (m *MemoryTokenStore) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tok = ""
}
