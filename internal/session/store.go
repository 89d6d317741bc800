// Package session holds the authenticated-session state machine for one
// browser session: the current user, its derived flags, and every operation
// that may change them. All network effects go through the backend client;
// the durable subset of the state goes through a SnapshotStore.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bakehouse/console/internal/backend"
)

// RevalidationInterval is how long a confirmed session is trusted before a
// background liveness probe is issued again.
const RevalidationInterval = 5 * time.Minute

// Snapshot is the observable state of a Store at a point in time.
// IsAuthenticated implies User is present except for the brief window inside
// an operation; the two are always set together here.
type Snapshot struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	LastValidatedAt time.Time
}

// Store owns the session snapshot. Every mutation replaces the snapshot
// fields under one mutex, the Go stand-in for the single-threaded scheduler
// the design assumes, so readers never observe a half-applied transition.
type Store struct {
	mu   sync.Mutex
	snap Snapshot

	api     backend.Backend
	persist SnapshotStore
	logger  *logrus.Logger

	bg  sync.WaitGroup // in-flight background revalidations
	now func() time.Time
}

// NewStore builds a Store over the given backend and persistence. persist may
// be nil, in which case the snapshot only lives as long as the Store.
func NewStore(api backend.Backend, persist SnapshotStore, logger *logrus.Logger) *Store {
	if persist == nil {
		persist = &MemorySnapshotStore{}
	}
	return &Store{api: api, persist: persist, logger: logger, now: time.Now}
}

// Snapshot returns the current state. The embedded User must be treated as
// read-only; it is replaced, never edited, on state transitions.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Hydrate seeds the snapshot from the persisted record. Transient fields stay
// zero. Call it once, before Initialize.
func (s *Store) Hydrate(ctx context.Context) {
	st, found, err := s.persist.Load(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("session snapshot load failed")
		}
		return
	}
	if !found {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.User != nil {
		u := st.User.normalized()
		s.snap.User = &u
	}
	s.snap.IsAuthenticated = st.IsAuthenticated
	s.snap.LastValidatedAt = st.LastValidatedAt
}

// Initialize runs once per session start. It fetches the profile only when
// the persisted record claims an authenticated session without a user object;
// a rehydrated user is trusted until the next gated revalidation.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	stale := s.snap.IsAuthenticated && s.snap.User == nil
	s.mu.Unlock()
	if stale {
		s.LoadProfile(ctx)
	}
}

// SignUp registers a new account and, on success, signs the session in.
// It never returns an error: failures land in Snapshot().Error.
func (s *Store) SignUp(ctx context.Context, email, password, name string) bool {
	s.beginCall()
	res, err := s.api.SignUp(ctx, email, password, name)
	if err != nil {
		s.failCall(err, "Signup failed")
		return false
	}
	s.completeAuth(ctx, NormalizeUser(res.User))
	return true
}

// SignIn authenticates the session. Same contract as SignUp. A failed attempt
// leaves any previously established session untouched.
func (s *Store) SignIn(ctx context.Context, email, password string) bool {
	s.beginCall()
	res, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		s.failCall(err, "Signin failed")
		return false
	}
	s.completeAuth(ctx, NormalizeUser(res.User))
	return true
}

// SignOut clears the session. The backend call is best effort; local state
// resets no matter what it returns.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.api.SignOut(ctx); err != nil && s.logger != nil {
		s.logger.WithError(err).Debug("backend signout failed")
	}

	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()

	if err := s.persist.Clear(ctx); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("session snapshot clear failed")
	}
}

// LoadProfile fetches the current user. A second call while one is in flight
// is a no-op. Any failure is read as "not actually logged in" and resets the
// snapshot to the logged-out shape.
func (s *Store) LoadProfile(ctx context.Context) {
	s.mu.Lock()
	if s.snap.IsLoading {
		s.mu.Unlock()
		return
	}
	s.snap.IsLoading = true
	s.mu.Unlock()

	raw, err := s.api.GetProfile(ctx)
	if err != nil {
		s.mu.Lock()
		s.snap.User = nil
		s.snap.IsAuthenticated = false
		s.snap.IsLoading = false
		s.snap.LastValidatedAt = time.Time{}
		s.mu.Unlock()
		s.save(ctx)
		return
	}
	s.completeAuth(ctx, NormalizeUser(raw))
}

// GetUserProfile returns the cached user, fetching the profile first when the
// cache is empty. The result may still be nil when the fetch fails.
func (s *Store) GetUserProfile(ctx context.Context) *User {
	s.mu.Lock()
	u := s.snap.User
	s.mu.Unlock()
	if u != nil {
		return u
	}
	s.LoadProfile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.User
}

// HasRole reports membership in the user's role set; false with no user.
func (s *Store) HasRole(role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.User == nil {
		return false
	}
	return contains(s.snap.User.Roles, role)
}

// HasPermission reports membership in the user's permission set.
func (s *Store) HasPermission(permission string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.User == nil {
		return false
	}
	return contains(s.snap.User.Permissions, permission)
}

// CheckSession probes the backend for session liveness. Unauthorized forces a
// full sign-out; transport failures and 5xx fail open.
func (s *Store) CheckSession(ctx context.Context) bool {
	s.mu.Lock()
	authed := s.snap.IsAuthenticated && s.snap.User != nil
	s.mu.Unlock()
	if !authed {
		return false
	}

	switch s.api.ProbeSessionAlive(ctx) {
	case backend.ProbeOK:
		s.mu.Lock()
		s.snap.LastValidatedAt = s.now()
		s.mu.Unlock()
		s.save(ctx)
		return true
	case backend.ProbeUnauthorized:
		s.SignOut(ctx)
		return false
	default:
		if s.logger != nil {
			s.logger.Warn("session probe inconclusive, assuming session valid")
		}
		return true
	}
}

// ValidateSessionIfNeeded is the non-blocking wrapper around CheckSession.
// Within RevalidationInterval of the last confirmation it does nothing. Past
// it, the probe runs in the background and the caller proceeds immediately;
// navigation is never held up by a network round trip.
func (s *Store) ValidateSessionIfNeeded(ctx context.Context) bool {
	s.mu.Lock()
	if !s.snap.IsAuthenticated || s.snap.User == nil {
		s.mu.Unlock()
		return false
	}
	if !s.snap.LastValidatedAt.IsZero() && s.now().Sub(s.snap.LastValidatedAt) < RevalidationInterval {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	// Detached from the request context: the probe outlives the navigation
	// that triggered it, and its outcome is discarded.
	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.CheckSession(bgCtx)
	}()
	return true
}

// ClearError drops the surfaced form error.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.snap.Error = ""
	s.mu.Unlock()
}

// waitBackground blocks until in-flight background revalidations finish.
// Test hook; keeps revalidation assertions deterministic.
func (s *Store) waitBackground() {
	s.bg.Wait()
}

func (s *Store) beginCall() {
	s.mu.Lock()
	s.snap.IsLoading = true
	s.snap.Error = ""
	s.mu.Unlock()
}

// failCall surfaces the backend message, or fallback when there is none, and
// leaves user/isAuthenticated exactly as they were.
func (s *Store) failCall(err error, fallback string) {
	msg := fallback
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	s.mu.Lock()
	s.snap.IsLoading = false
	s.snap.Error = msg
	s.mu.Unlock()
}

// completeAuth installs a fresh user and marks the session confirmed now.
func (s *Store) completeAuth(ctx context.Context, u User) {
	s.mu.Lock()
	s.snap.User = &u
	s.snap.IsAuthenticated = true
	s.snap.IsLoading = false
	s.snap.Error = ""
	s.snap.LastValidatedAt = s.now()
	s.mu.Unlock()
	s.save(ctx)
}

// save writes the durable subset of the snapshot. Persistence failures are
// logged, not surfaced: losing a snapshot only costs a re-login after reload.
func (s *Store) save(ctx context.Context) {
	s.mu.Lock()
	st := PersistedState{
		User:            s.snap.User,
		IsAuthenticated: s.snap.IsAuthenticated,
		LastValidatedAt: s.snap.LastValidatedAt,
	}
	s.mu.Unlock()

	if err := s.persist.Save(ctx, st); err != nil && s.logger != nil {
		s.logger.WithError(err).Warn("session snapshot save failed")
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
