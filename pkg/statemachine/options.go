package statemachine

// Option configures a machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// WithTransition adds one transition.
func WithTransition[S, E comparable](from S, event E, to S, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		return m.add(Transition[S, E]{From: from, Event: event, To: to, Guards: guards})
	}
}

// WithTransitions adds a whole table.
func WithTransitions[S, E comparable](ts ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, t := range ts {
			if err := m.add(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithHook registers a hook run after every successful transition.
func WithHook[S, E comparable](h Hook[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
		return nil
	}
}
