package observer

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
)

// Source is the part of identity.Adapter the observer needs.
type Source interface {
	CurrentSession() *identity.Session
	SubscribeToSessionChanges(fn func(*identity.Session)) (unsubscribe func())
}

// Observer holds one subscription to a Source and fans every session change
// out to its listeners.
type Observer struct {
	logger      *slog.Logger
	unsubscribe func()
	closed      atomic.Bool

	// delivery serialises notifications so Close can wait for the one in
	// progress.
	delivery sync.Mutex

	mu        sync.RWMutex
	current   *identity.Session
	listeners map[uint64]listener
	nextID    uint64
}

type listener struct {
	name string
	fn   func(*identity.Session)
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger used to report listener panics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Observer) { o.logger = l }
}

// New subscribes to src once and starts tracking its session.
func New(src Source, opts ...Option) *Observer {
	o := &Observer{
		logger:    logger.Discard(),
		current:   src.CurrentSession(),
		listeners: make(map[uint64]listener),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.unsubscribe = src.SubscribeToSessionChanges(o.notify)
	return o
}

// Current returns the last known session, or nil when signed out.
func (o *Observer) Current() *identity.Session {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current.Clone()
}

// Observe registers fn for every later change. name identifies the listener
// in logs. The returned cancel is idempotent and may be called from fn.
func (o *Observer) Observe(name string, fn func(*identity.Session)) (cancel func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = listener{name: name, fn: fn}
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.listeners, id)
			o.mu.Unlock()
		})
	}
}

// Close unsubscribes from the source. No listener is called after Close
// returns. Close must not be called from a listener.
func (o *Observer) Close() {
	if o.closed.Swap(true) {
		return
	}
	o.unsubscribe()

	o.delivery.Lock()
	defer o.delivery.Unlock()
	o.mu.Lock()
	clear(o.listeners)
	o.mu.Unlock()
}

func (o *Observer) notify(sess *identity.Session) {
	o.delivery.Lock()
	defer o.delivery.Unlock()
	if o.closed.Load() {
		return
	}

	o.mu.Lock()
	o.current = sess.Clone()
	ids := slices.Sorted(maps.Keys(o.listeners))
	targets := make([]listener, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, o.listeners[id])
	}
	o.mu.Unlock()

	for _, l := range targets {
		o.call(l, sess.Clone())
	}
}

func (o *Observer) call(l listener, sess *identity.Session) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("session listener panicked",
				logger.Component("observer"),
				slog.String("listener", l.name),
				logger.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	l.fn(sess)
}
