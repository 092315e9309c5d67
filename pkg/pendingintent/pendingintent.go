package pendingintent

import (
	"net/http"
	"sync"
)

// CookieName is the cookie that carries the pending address.
const CookieName = "emailForSignIn"

// Store remembers the address a sign-in link was sent to, for one browser.
// Saving overwrites. Storage failures are logged and never returned; a
// failed save later reads as "none".
type Store interface {
	SavePendingEmail(email string)
	// LoadPendingEmail returns false when nothing is saved.
	LoadPendingEmail() (string, bool)
	// ClearPendingEmail is idempotent.
	ClearPendingEmail()
}

// Factory opens the Store of the browser making a request.
type Factory interface {
	For(w http.ResponseWriter, r *http.Request, browserID string) Store
}

// MemoryStore is a Store held in memory.
type MemoryStore struct {
	mu    sync.Mutex
	email string
	ok    bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SavePendingEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email, s.ok = email, true
}

func (s *MemoryStore) LoadPendingEmail() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email, s.ok
}

func (s *MemoryStore) ClearPendingEmail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email, s.ok = "", false
}

// MemoryFactory hands out one MemoryStore per browser ID.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

func (f *MemoryFactory) For(_ http.ResponseWriter, _ *http.Request, browserID string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stores[browserID]
	if !ok {
		s = NewMemoryStore()
		f.stores[browserID] = s
	}
	return s
}
