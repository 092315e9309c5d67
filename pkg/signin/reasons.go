package signin

import (
	"context"
	"errors"

	"github.com/linkaura/linkaura/pkg/identity"
)

// Reason classifies why the flow failed.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonInvalidEmail            Reason = "invalid_email"
	ReasonRateLimited             Reason = "rate_limited"
	ReasonUnauthorizedContinueURL Reason = "unauthorized_continue_url"
	ReasonExpiredLink             Reason = "expired_link"
	ReasonEmailMismatch           Reason = "email_mismatch"
	ReasonNetwork                 Reason = "network"
	ReasonPopupClosed             Reason = "popup_closed"
	ReasonPopupBlocked            Reason = "popup_blocked"
	ReasonProviderNetwork         Reason = "provider_network"
	ReasonUnknownProvider         Reason = "unknown_provider"
	ReasonUnverifiedEmail         Reason = "unverified_email"
	ReasonUnknown                 Reason = "unknown"
)

var reasonMessages = map[Reason]string{
	ReasonInvalidEmail:            "Please enter a valid email",
	ReasonRateLimited:             "Too many sign-in requests. Please wait a moment and try again.",
	ReasonUnauthorizedContinueURL: "This sign-in page is not allowed to send links. Please contact support.",
	ReasonExpiredLink:             "This sign-in link has expired or was already used. Please request a new one.",
	ReasonEmailMismatch:           "That email does not match the address this link was sent to.",
	ReasonNetwork:                 "We could not reach the sign-in service. Please try again.",
	ReasonPopupClosed:             "The sign-in popup was closed before finishing. Please try again.",
	ReasonPopupBlocked:            "The sign-in popup was blocked or expired. Please try again.",
	ReasonProviderNetwork:         "We could not reach the sign-in provider. Please try again.",
	ReasonUnknownProvider:         "This sign-in provider is not available.",
	ReasonUnverifiedEmail:         "Your provider account email is not verified.",
	ReasonUnknown:                 "Something went wrong. Please try again.",
}

// Message is the text shown to the user for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	if r == ReasonNone {
		return ""
	}
	return reasonMessages[ReasonUnknown]
}

// Classify maps an identity error to its Reason. Order matters for errors
// that join several sentinels.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, identity.ErrInvalidEmailAddress):
		return ReasonInvalidEmail
	case errors.Is(err, identity.ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, identity.ErrUnauthorizedContinueURL):
		return ReasonUnauthorizedContinueURL
	case errors.Is(err, identity.ErrExpiredOrInvalidLink):
		return ReasonExpiredLink
	case errors.Is(err, identity.ErrEmailMismatch):
		return ReasonEmailMismatch
	case errors.Is(err, identity.ErrProviderPopupClosed):
		return ReasonPopupClosed
	case errors.Is(err, identity.ErrProviderPopupBlocked):
		return ReasonPopupBlocked
	case errors.Is(err, identity.ErrUnverifiedProviderEmail):
		return ReasonUnverifiedEmail
	case errors.Is(err, identity.ErrProviderNetwork):
		return ReasonProviderNetwork
	case errors.Is(err, identity.ErrUnknownProvider):
		return ReasonUnknownProvider
	case errors.Is(err, identity.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded):
		return ReasonNetwork
	default:
		return ReasonUnknown
	}
}
