package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Guard decides at fire time whether a transition may be taken.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Hook observes a completed state change. Hooks run after the machine lock
// is released, in registration order.
type Hook[S, E comparable] func(ctx context.Context, from, to S, event E, data any)

// Transition moves the machine from From to To when Event fires and every
// guard passes.
type Transition[S, E comparable] struct {
	From   S
	Event  E
	To     S
	Guards []Guard[S, E]
}

// Machine is a thread-safe finite state machine over comparable state and
// event types. Several transitions may share a from/event pair; the first
// one whose guards pass wins.
type Machine[S, E comparable] struct {
	mu      sync.RWMutex
	initial S
	current S
	table   map[S]map[E][]Transition[S, E]
	hooks   []Hook[S, E]
}

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial: initial,
		current: initial,
		table:   make(map[S]map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on a malformed table.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) add(t Transition[S, E]) error {
	events, ok := m.table[t.From]
	if !ok {
		events = make(map[E][]Transition[S, E])
		m.table[t.From] = events
	}
	for _, existing := range events[t.Event] {
		if existing.To == t.To && len(existing.Guards) == 0 && len(t.Guards) == 0 {
			return fmt.Errorf("%w: %v --%v--> %v", ErrDuplicateTransition, t.From, t.Event, t.To)
		}
	}
	events[t.Event] = append(events[t.Event], t)
	return nil
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire applies event and returns the new state. On error the state is
// unchanged.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) (S, error) {
	m.mu.Lock()
	from := m.current
	t, err := m.match(ctx, from, event, data)
	if err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.current = t.To
	hooks := m.hooks
	m.mu.Unlock()

	for _, h := range hooks {
		h(ctx, from, t.To, event, data)
	}
	return t.To, nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.match(ctx, m.current, event, data)
	return err == nil
}

// Permitted lists the events that have at least one transition out of the
// current state, ignoring guards.
func (m *Machine[S, E]) Permitted() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]E, 0, len(m.table[m.current]))
	for ev := range m.table[m.current] {
		out = append(out, ev)
	}
	return out
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	m.current = m.initial
	m.mu.Unlock()
}

func (m *Machine[S, E]) match(ctx context.Context, from S, event E, data any) (Transition[S, E], error) {
	candidates := m.table[from][event]
	if len(candidates) == 0 {
		return Transition[S, E]{}, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	for _, t := range candidates {
		if guardsPass(ctx, t.Guards, from, event, data) {
			return t, nil
		}
	}
	return Transition[S, E]{}, fmt.Errorf("%w: %v on %v", ErrTransitionRejected, from, event)
}

func guardsPass[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, g := range guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
