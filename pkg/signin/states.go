package signin

import "github.com/linkaura/linkaura/pkg/statemachine"

// State is a step of the sign-in flow.
type State string

const (
	StateIdle                      State = "idle"
	StateValidatingInput           State = "validating_input"
	StateLinkDispatching           State = "link_dispatching"
	StateLinkSent                  State = "link_sent"
	StateLinkModeDetected          State = "link_mode_detected"
	StateAwaitingEmailConfirmation State = "awaiting_email_confirmation"
	StateCompleting                State = "completing"
	StateAuthenticated             State = "authenticated"
	StateFailed                    State = "failed"
)

// Event drives the flow from one State to the next.
type Event string

const (
	EventSubmit           Event = "submit"
	EventResend           Event = "resend"
	EventInvalid          Event = "invalid"
	EventValid            Event = "valid"
	EventDispatched       Event = "dispatched"
	EventDispatchFailed   Event = "dispatch_failed"
	EventRecover          Event = "recover"
	EventLinkDetected     Event = "link_detected"
	EventAwaitEmail       Event = "await_email"
	EventConfirm          Event = "confirm"
	EventCompleted        Event = "completed"
	EventCompletionFailed Event = "completion_failed"
	EventProviderStart    Event = "provider_start"
	EventSessionFound     Event = "session_found"
	EventSignedOut        Event = "signed_out"
)

type transition = statemachine.Transition[State, Event]

// transitions is the whole flow. Nothing moves between states except
// through this table.
func transitions(hasLink statemachine.Guard[State, Event]) []transition {
	return []transition{
		// Link request.
		{From: StateIdle, Event: EventSubmit, To: StateValidatingInput},
		{From: StateLinkSent, Event: EventSubmit, To: StateValidatingInput},
		{From: StateLinkSent, Event: EventResend, To: StateValidatingInput},
		{From: StateFailed, Event: EventSubmit, To: StateValidatingInput},
		{From: StateValidatingInput, Event: EventInvalid, To: StateIdle},
		{From: StateValidatingInput, Event: EventValid, To: StateLinkDispatching},
		{From: StateLinkDispatching, Event: EventDispatched, To: StateLinkSent},
		{From: StateLinkDispatching, Event: EventDispatchFailed, To: StateFailed},
		{From: StateFailed, Event: EventRecover, To: StateIdle},

		// Link completion.
		{From: StateIdle, Event: EventLinkDetected, To: StateLinkModeDetected},
		{From: StateLinkModeDetected, Event: EventAwaitEmail, To: StateAwaitingEmailConfirmation},
		{From: StateAwaitingEmailConfirmation, Event: EventConfirm, To: StateCompleting},
		{From: StateFailed, Event: EventConfirm, To: StateCompleting, Guards: []statemachine.Guard[State, Event]{hasLink}},
		{From: StateCompleting, Event: EventCompleted, To: StateAuthenticated},
		{From: StateCompleting, Event: EventCompletionFailed, To: StateFailed},

		// Provider sign-in.
		{From: StateIdle, Event: EventProviderStart, To: StateCompleting},
		{From: StateLinkSent, Event: EventProviderStart, To: StateCompleting},
		{From: StateFailed, Event: EventProviderStart, To: StateCompleting},

		// Session appeared or went away outside this flow.
		{From: StateIdle, Event: EventSessionFound, To: StateAuthenticated},
		{From: StateLinkSent, Event: EventSessionFound, To: StateAuthenticated},
		{From: StateLinkModeDetected, Event: EventSessionFound, To: StateAuthenticated},
		{From: StateAwaitingEmailConfirmation, Event: EventSessionFound, To: StateAuthenticated},
		{From: StateFailed, Event: EventSessionFound, To: StateAuthenticated},
		{From: StateAuthenticated, Event: EventSignedOut, To: StateIdle},
	}
}
