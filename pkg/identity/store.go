package identity

import (
	"context"
	"sync"
	"time"
)

// SessionStore maps a browser ID to its current session credential. Saving
// replaces whatever the browser held before.
type SessionStore interface {
	// Get returns ErrSessionNotFound when the browser has no session.
	Get(ctx context.Context, browserID string) (string, error)
	Set(ctx context.Context, browserID, credential string, ttl time.Duration) error
	Delete(ctx context.Context, browserID string) error
}

// Ledger records short-lived single-use keys: consumed link token IDs and
// pending provider states.
type Ledger interface {
	// Claim records key. Claiming a key again before ttl passes fails with
	// ErrAlreadyClaimed.
	Claim(ctx context.Context, key string, ttl time.Duration) error
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns the value under key and removes it. Missing or expired
	// keys fail with ErrStateNotFound.
	Take(ctx context.Context, key string) (string, error)
}

type expiring struct {
	value     string
	expiresAt time.Time
}

// memoryKV is the shared map behind the in-memory stores.
type memoryKV struct {
	mu    sync.Mutex
	items map[string]expiring
	now   func() time.Time
}

func newMemoryKV() *memoryKV {
	return &memoryKV{items: make(map[string]expiring), now: time.Now}
}

func (m *memoryKV) get(key string) (string, bool) {
	it, ok := m.items[key]
	if !ok {
		return "", false
	}
	if !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		return "", false
	}
	return it.value, true
}

func (m *memoryKV) set(key, value string, ttl time.Duration) {
	m.items[key] = expiring{value: value, expiresAt: m.now().Add(ttl)}
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	kv *memoryKV
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{kv: newMemoryKV()}
}

func (s *MemorySessionStore) Get(_ context.Context, browserID string) (string, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	v, ok := s.kv.get(browserID)
	if !ok {
		return "", ErrSessionNotFound
	}
	return v, nil
}

func (s *MemorySessionStore) Set(_ context.Context, browserID, credential string, ttl time.Duration) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	s.kv.set(browserID, credential, ttl)
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, browserID string) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	delete(s.kv.items, browserID)
	return nil
}

// MemoryLedger keeps ledger entries in process memory.
type MemoryLedger struct {
	kv *memoryKV
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{kv: newMemoryKV()}
}

func (l *MemoryLedger) Claim(_ context.Context, key string, ttl time.Duration) error {
	l.kv.mu.Lock()
	defer l.kv.mu.Unlock()
	if _, ok := l.kv.get(key); ok {
		return ErrAlreadyClaimed
	}
	l.kv.set(key, "1", ttl)
	return nil
}

func (l *MemoryLedger) Put(_ context.Context, key, value string, ttl time.Duration) error {
	l.kv.mu.Lock()
	defer l.kv.mu.Unlock()
	l.kv.set(key, value, ttl)
	return nil
}

func (l *MemoryLedger) Take(_ context.Context, key string) (string, error) {
	l.kv.mu.Lock()
	defer l.kv.mu.Unlock()
	v, ok := l.kv.get(key)
	if !ok {
		return "", ErrStateNotFound
	}
	delete(l.kv.items, key)
	return v, nil
}
