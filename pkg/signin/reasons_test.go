package signin_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/signin"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want signin.Reason
	}{
		{nil, signin.ReasonNone},
		{identity.ErrInvalidEmailAddress, signin.ReasonInvalidEmail},
		{fmt.Errorf("dispatch: %w", identity.ErrRateLimited), signin.ReasonRateLimited},
		{identity.ErrUnauthorizedContinueURL, signin.ReasonUnauthorizedContinueURL},
		{identity.ErrExpiredOrInvalidLink, signin.ReasonExpiredLink},
		{identity.ErrEmailMismatch, signin.ReasonEmailMismatch},
		{identity.ErrNetwork, signin.ReasonNetwork},
		{context.DeadlineExceeded, signin.ReasonNetwork},
		{identity.ErrProviderPopupClosed, signin.ReasonPopupClosed},
		{identity.ErrProviderPopupBlocked, signin.ReasonPopupBlocked},
		{errors.Join(identity.ErrProviderNetwork, errors.New("dial tcp")), signin.ReasonProviderNetwork},
		{identity.ErrUnknownProvider, signin.ReasonUnknownProvider},
		{identity.ErrUnverifiedProviderEmail, signin.ReasonUnverifiedEmail},
		{errors.New("boom"), signin.ReasonUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, signin.Classify(tt.err), "%v", tt.err)
	}
}

func TestReason_Message(t *testing.T) {
	t.Parallel()

	assert.Empty(t, signin.ReasonNone.Message())
	assert.Equal(t, "Please enter a valid email", signin.ReasonInvalidEmail.Message())
	assert.Equal(t, "The sign-in popup was closed before finishing. Please try again.", signin.ReasonPopupClosed.Message())
	assert.Equal(t, signin.ReasonUnknown.Message(), signin.Reason("made_up").Message())
}
