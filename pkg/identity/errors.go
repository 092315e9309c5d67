package identity

import "errors"

// Errors surfaced to callers of the Adapter. Every failure returned by the
// sign-in operations matches exactly one of these with errors.Is.
var (
	ErrProviderPopupClosed     = errors.New("identity: provider sign-in was closed before finishing")
	ErrProviderPopupBlocked    = errors.New("identity: provider sign-in was blocked or has expired")
	ErrProviderNetwork         = errors.New("identity: provider is unreachable")
	ErrUnknownProvider         = errors.New("identity: unknown provider")
	ErrUnverifiedProviderEmail = errors.New("identity: provider email is not verified")

	ErrInvalidEmailAddress     = errors.New("identity: invalid email address")
	ErrRateLimited             = errors.New("identity: too many sign-in requests")
	ErrUnauthorizedContinueURL = errors.New("identity: continue url is not allowed")
	ErrExpiredOrInvalidLink    = errors.New("identity: sign-in link is expired or invalid")
	ErrEmailMismatch           = errors.New("identity: email does not match sign-in link")
	ErrNetwork                 = errors.New("identity: service unavailable")
)

// Storage errors.
var (
	ErrAccountNotFound   = errors.New("identity: account not found")
	ErrAccountExists     = errors.New("identity: account already exists")
	ErrSessionNotFound   = errors.New("identity: session not found")
	ErrStateNotFound     = errors.New("identity: state not found or expired")
	ErrAlreadyClaimed    = errors.New("identity: key already claimed")
	ErrInvalidCredential = errors.New("identity: invalid session credential")
	ErrInvalidConfig     = errors.New("identity: invalid configuration")
)
