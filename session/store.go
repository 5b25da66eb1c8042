package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoToken is returned by a TokenStore when a terminal holds no token.
var ErrNoToken = errors.New("no token stored")

// Stored is what a terminal keeps between requests: the raw token and the
// cached user id string.
type Stored struct {
	Token  string `json:"token"`
	UserID string `json:"userId,omitempty"`
}

// TokenStore is the storage primitive holding each terminal's raw token.
type TokenStore interface {
	Load(ctx context.Context, terminal string) (Stored, error)
	Save(ctx context.Context, terminal string, s Stored, ttl time.Duration) error
	Delete(ctx context.Context, terminal string) error
}

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	stored  Stored
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, terminal string) (Stored, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[terminal]
	if !ok {
		return Stored{}, ErrNoToken
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, terminal)
		return Stored{}, ErrNoToken
	}
	return e.stored, nil
}

func (m *MemoryStore) Save(_ context.Context, terminal string, s Stored, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{stored: s}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[terminal] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, terminal string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, terminal)
	return nil
}
