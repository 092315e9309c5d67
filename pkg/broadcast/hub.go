package broadcast

import (
	"context"
	"sync"
)

// Hub fans messages out to subscribers grouped by topic. Delivery is
// non-blocking: a subscriber whose buffer is full misses the message but
// stays subscribed. All methods are safe for concurrent use.
type Hub[T any] struct {
	mu         sync.RWMutex
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
	wg         sync.WaitGroup
}

// NewHub creates a hub whose subscribers buffer up to bufferSize messages.
// Sizes below 1 are raised to 1.
func NewHub[T any](bufferSize int) *Hub[T] {
	return &Hub[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a subscriber on topic. The subscription ends when
// ctx is cancelled, when the subscriber is closed, or when the hub closes.
// Subscribing to a closed hub returns an already-closed subscriber.
func (h *Hub[T]) Subscribe(ctx context.Context, topic string) Subscriber[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub := newSubscriber[T](topic, 1, nil)
		sub.close()
		return sub
	}

	sub := newSubscriber(topic, h.bufferSize, h.remove)
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	if ctx.Done() != nil {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			select {
			case <-ctx.Done():
				_ = sub.Close()
			case <-sub.done:
			}
		}()
	}
	return sub
}

// Publish delivers data to every subscriber of topic and returns how many
// received it.
func (h *Hub[T]) Publish(_ context.Context, topic string, data T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0
	}
	msg := Message[T]{Topic: topic, Data: data}
	delivered := 0
	for sub := range h.topics[topic] {
		if sub.send(msg) {
			delivered++
		}
	}
	return delivered
}

// Subscribers returns the number of live subscribers on topic.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription and rejects new ones.
func (h *Hub[T]) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	var all []*subscriber[T]
	for _, subs := range h.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	clear(h.topics)
	h.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
	h.wg.Wait()
	return nil
}

func (h *Hub[T]) remove(sub *subscriber[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
}
