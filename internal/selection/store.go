package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session wraps a persisted selection snapshot with bookkeeping metadata.
// The id is only used for traceability, never for authorization.
type Session struct {
	SessionID   string    `json:"session_id"`
	SelectedIDs []string  `json:"selected_ids"`
	LastUpdated time.Time `json:"last_updated"`
	OriginURL   string    `json:"origin_url"`
}

func NewSession(originURL string) *Session {
	return &Session{
		SessionID:   uuid.New().String(),
		LastUpdated: time.Now(),
		OriginURL:   originURL,
	}
}

// Store is the durable home of the selection set. It is the single source
// of truth; callers always write the full set, never a delta, and load
// immediately before mutating to keep the race window small.
type Store interface {
	// Load returns the persisted set, or an empty set if none exists.
	// Absence is not an error.
	Load(ctx context.Context) (*Set, error)
	// Save overwrites the persisted set with the caller's complete view.
	Save(ctx context.Context, set *Set) error
	// Clear removes the persisted set and session entirely.
	Clear(ctx context.Context) error

	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, sess *Session) error
}

// TokenStore holds the opaque backend auth token, kept separate from
// selection state.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}

// MemoryStore is a process-local Store. It backs tests and the degraded
// mode entered when the durable store is unreachable.
type MemoryStore struct {
	mu      sync.Mutex
	set     *Set
	session *Session
	token   string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{set: NewSet()}
}

func (m *MemoryStore) Load(ctx context.Context) (*Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, set *Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = set.Clone()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = NewSet()
	m.session = nil
	return nil
}

func (m *MemoryStore) LoadSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	copy := *m.session
	return &copy, nil
}

func (m *MemoryStore) SaveSession(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *sess
	m.session = &copy
	return nil
}

func (m *MemoryStore) LoadToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) SaveToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}
