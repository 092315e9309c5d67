package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrTransitionRejected  = errors.New("transition rejected by guards")
	ErrDuplicateTransition = errors.New("duplicate transition")
)

// NoTransitionError is returned when the current state has no transition
// for the fired event.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition from state %q for event %q", e.State, e.Event)
}

// IsNoTransition reports whether err is a NoTransitionError.
func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}
