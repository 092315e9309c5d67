package signin_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/linkaura/linkaura/pkg/identity"
)

// MockAdapter is a mock implementation of identity.Adapter.
type MockAdapter struct {
	mock.Mock

	mu        sync.Mutex
	listeners []func(*identity.Session)
}

func (m *MockAdapter) BeginPopupSignIn(ctx context.Context, provider string) (string, error) {
	args := m.Called(ctx, provider)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) SignInWithPopupProvider(ctx context.Context, provider string, cb identity.ProviderCallback) (*identity.Session, error) {
	args := m.Called(ctx, provider, cb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockAdapter) DispatchSignInLink(ctx context.Context, email, continueURL string) error {
	args := m.Called(ctx, email, continueURL)
	return args.Error(0)
}

func (m *MockAdapter) IsSignInLink(rawURL string) bool {
	args := m.Called(rawURL)
	return args.Bool(0)
}

func (m *MockAdapter) CompleteSignInWithLink(ctx context.Context, email, rawURL string) (*identity.Session, error) {
	args := m.Called(ctx, email, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockAdapter) CurrentSession() *identity.Session {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*identity.Session)
}

func (m *MockAdapter) SubscribeToSessionChanges(fn func(*identity.Session)) func() {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
	return func() {}
}

func (m *MockAdapter) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPendingStore is a mock implementation of pendingintent.Store.
type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) SavePendingEmail(email string) {
	m.Called(email)
}

func (m *MockPendingStore) LoadPendingEmail() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

func (m *MockPendingStore) ClearPendingEmail() {
	m.Called()
}

// sessionSource hands the controller's listener back to the test.
type sessionSource struct {
	mu sync.Mutex
	fn func(*identity.Session)
}

func (s *sessionSource) Observe(_ string, fn func(*identity.Session)) func() {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.fn = nil
		s.mu.Unlock()
	}
}

func (s *sessionSource) emit(sess *identity.Session) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(sess)
	}
}
