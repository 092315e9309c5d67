package identity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Account is a registered user. Email is stored normalized and is unique.
type Account struct {
	ID            uuid.UUID
	Email         string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AccountStore persists accounts and their provider links. Lookups that
// find nothing return ErrAccountNotFound.
type AccountStore interface {
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountByProvider(ctx context.Context, provider, providerUserID string) (*Account, error)
	// CreateAccount fails with ErrAccountExists when the email is taken.
	CreateAccount(ctx context.Context, acc *Account) error
	LinkProvider(ctx context.Context, accountID uuid.UUID, provider, providerUserID string) error
	MarkEmailVerified(ctx context.Context, accountID uuid.UUID) error
}

type providerKey struct {
	provider string
	userID   string
}

// MemoryAccountStore keeps accounts in process memory.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	byEmail  map[string]uuid.UUID
	links    map[providerKey]uuid.UUID
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[uuid.UUID]*Account),
		byEmail:  make(map[string]uuid.UUID),
		links:    make(map[providerKey]uuid.UUID),
	}
}

func (m *MemoryAccountStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc := *m.accounts[id]
	return &acc, nil
}

func (m *MemoryAccountStore) AccountByProvider(_ context.Context, provider, providerUserID string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.links[providerKey{provider, providerUserID}]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc := *m.accounts[id]
	return &acc, nil
}

func (m *MemoryAccountStore) CreateAccount(_ context.Context, acc *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[acc.Email]; ok {
		return ErrAccountExists
	}
	stored := *acc
	m.accounts[acc.ID] = &stored
	m.byEmail[acc.Email] = acc.ID
	return nil
}

func (m *MemoryAccountStore) LinkProvider(_ context.Context, accountID uuid.UUID, provider, providerUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; !ok {
		return ErrAccountNotFound
	}
	m.links[providerKey{provider, providerUserID}] = accountID
	return nil
}

func (m *MemoryAccountStore) MarkEmailVerified(_ context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	acc.EmailVerified = true
	acc.UpdatedAt = time.Now().UTC()
	return nil
}
