package session

import (
	"context"
	"sync"
	"time"
)

// PersistedState is the durable subset of a Snapshot: exactly the fields that
// survive a reload. Transient fields (IsLoading, Error) are excluded by
// construction rather than filtered at save time.
type PersistedState struct {
	User            *User     `json:"user,omitempty"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	LastValidatedAt time.Time `json:"lastValidatedAt,omitempty"`
}

// SnapshotStore persists the durable subset of the session snapshot under a
// fixed namespace. Load's boolean reports whether a record existed.
type SnapshotStore interface {
	Load(ctx context.Context) (PersistedState, bool, error)
	Save(ctx context.Context, st PersistedState) error
	Clear(ctx context.Context) error
}

// MemorySnapshotStore keeps the persisted state in process. Used by tests and
// as a fallback when no durable store is configured.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	st    PersistedState
	found bool
}

func (m *MemorySnapshotStore) Load(ctx context.Context) (PersistedState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, m.found, nil
}

func (m *MemorySnapshotStore) Save(ctx context.Context, st PersistedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	m.found = true
	return nil
}

func (m *MemorySnapshotStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = PersistedState{}
	m.found = false
	return nil
}
