package identity

import (
	"context"
	"sync"

	"github.com/linkaura/linkaura/pkg/broadcast"
	"github.com/linkaura/linkaura/pkg/logger"
)

// Adapter is the surface the sign-in flow uses. An Adapter is bound to one
// browser.
type Adapter interface {
	BeginPopupSignIn(ctx context.Context, provider string) (string, error)
	SignInWithPopupProvider(ctx context.Context, provider string, cb ProviderCallback) (*Session, error)
	DispatchSignInLink(ctx context.Context, email, continueURL string) error
	IsSignInLink(rawURL string) bool
	CompleteSignInWithLink(ctx context.Context, email, rawURL string) (*Session, error)
	// CurrentSession returns the last known session without blocking.
	CurrentSession() *Session
	// SubscribeToSessionChanges calls fn with every new session, or nil
	// on sign-out, until the returned function is called.
	SubscribeToSessionChanges(fn func(*Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Client is the Adapter of one browser. It caches the browser's session
// and receives changes made by any request for the same browser.
type Client struct {
	svc       *Service
	browserID string
	sub       broadcast.Subscriber[*Session]
	done      chan struct{}

	mu        sync.RWMutex
	current   *Session
	listeners map[uint64]func(*Session)
	nextID    uint64
}

// Client returns the Adapter for browserID. Close it when the request or
// stream that owns it ends.
func (s *Service) Client(ctx context.Context, browserID string) *Client {
	current, err := s.CurrentSession(ctx, browserID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load session",
			logger.Component("identity"),
			logger.BrowserID(browserID),
			logger.Error(err),
		)
	}

	c := &Client{
		svc:       s,
		browserID: browserID,
		sub:       s.hub.Subscribe(context.Background(), browserID),
		done:      make(chan struct{}),
		current:   current,
		listeners: make(map[uint64]func(*Session)),
	}
	go c.watch()
	return c
}

// BrowserID returns the browser this client is bound to.
func (c *Client) BrowserID() string { return c.browserID }

func (c *Client) watch() {
	defer close(c.done)
	for msg := range c.sub.Receive() {
		c.setCurrent(msg.Data)

		c.mu.RLock()
		fns := make([]func(*Session), 0, len(c.listeners))
		for _, fn := range c.listeners {
			fns = append(fns, fn)
		}
		c.mu.RUnlock()

		for _, fn := range fns {
			fn(msg.Data.Clone())
		}
	}
}

func (c *Client) setCurrent(sess *Session) {
	c.mu.Lock()
	c.current = sess.Clone()
	c.mu.Unlock()
}

func (c *Client) BeginPopupSignIn(ctx context.Context, provider string) (string, error) {
	return c.svc.BeginPopupSignIn(ctx, c.browserID, provider)
}

func (c *Client) SignInWithPopupProvider(ctx context.Context, provider string, cb ProviderCallback) (*Session, error) {
	sess, err := c.svc.SignInWithPopupProvider(ctx, c.browserID, provider, cb)
	if err != nil {
		return nil, err
	}
	c.setCurrent(sess)
	return sess, nil
}

func (c *Client) DispatchSignInLink(ctx context.Context, email, continueURL string) error {
	return c.svc.DispatchSignInLink(ctx, c.browserID, email, continueURL)
}

func (c *Client) IsSignInLink(rawURL string) bool {
	return c.svc.IsSignInLink(rawURL)
}

func (c *Client) CompleteSignInWithLink(ctx context.Context, email, rawURL string) (*Session, error) {
	sess, err := c.svc.CompleteSignInWithLink(ctx, c.browserID, email, rawURL)
	if err != nil {
		return nil, err
	}
	c.setCurrent(sess)
	return sess, nil
}

func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Clone()
}

func (c *Client) SubscribeToSessionChanges(fn func(*Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.svc.SignOut(ctx, c.browserID); err != nil {
		return err
	}
	c.setCurrent(nil)
	return nil
}

// Close stops delivery of session changes and waits for the delivery
// goroutine to exit. It must not be called from a listener.
func (c *Client) Close() error {
	err := c.sub.Close()
	<-c.done
	return err
}

var _ Adapter = (*Client)(nil)
