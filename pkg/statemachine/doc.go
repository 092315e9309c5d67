// Package statemachine implements a small generic finite state machine
// driven by a declarative transition table.
//
//	m := statemachine.MustNew(Idle,
//		statemachine.WithTransitions(
//			statemachine.Transition[State, Event]{From: Idle, Event: Submit, To: Validating},
//		),
//		statemachine.WithHook(func(ctx context.Context, from, to State, ev Event, _ any) {
//			log.InfoContext(ctx, "transition", "from", from, "to", to)
//		}),
//	)
//	next, err := m.Fire(ctx, Submit, nil)
//
// Fire returns *NoTransitionError when the table has no entry and wraps
// ErrTransitionRejected when every candidate guard refused.
package statemachine
