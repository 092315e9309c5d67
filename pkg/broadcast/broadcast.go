package broadcast

import (
	"context"
	"sync"
)

// Message wraps a payload published on a topic.
type Message[T any] struct {
	Topic string
	Data  T
}

// Subscriber receives messages for one topic.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the
	// subscription ends.
	Receive() <-chan Message[T]
	// Close ends the subscription. It is idempotent.
	Close() error
}

// Publisher is the write side of a Hub.
type Publisher[T any] interface {
	Publish(ctx context.Context, topic string, data T) int
}

type subscriber[T any] struct {
	topic  string
	ch     chan Message[T]
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	onDone func(*subscriber[T])
}

func newSubscriber[T any](topic string, bufferSize int, onDone func(*subscriber[T])) *subscriber[T] {
	return &subscriber[T]{
		topic:  topic,
		ch:     make(chan Message[T], bufferSize),
		done:   make(chan struct{}),
		onDone: onDone,
	}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	if s.close() && s.onDone != nil {
		s.onDone(s)
	}
	return nil
}

// close reports whether this call ended the subscription.
func (s *subscriber[T]) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	close(s.done)
	return true
}

// send never blocks; a full buffer drops the message.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
