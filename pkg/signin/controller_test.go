package signin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/pendingintent"
	"github.com/linkaura/linkaura/pkg/signin"
)

const (
	continueURL = "https://linkaura.test/login"
	landingURL  = "/account"
	linkURL     = "https://linkaura.test/login?mode=signIn&oobCode=abc"
)

func newController(t *testing.T, adapter identity.Adapter, pending pendingintent.Store, opts ...signin.Option) *signin.Controller {
	t.Helper()
	ctrl := signin.New(adapter, pending, signin.Config{ContinueURL: continueURL, LandingURL: landingURL}, opts...)
	t.Cleanup(ctrl.Close)
	return ctrl
}

func testSession(email string) *identity.Session {
	return &identity.Session{
		ID:        uuid.NewString(),
		AccountID: uuid.New(),
		Email:     email,
		Provider:  identity.ProviderEmailLink,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestSubmit_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "empty", email: "", want: signin.MsgEmailRequired},
		{name: "blank", email: "   ", want: signin.MsgEmailRequired},
		{name: "no domain", email: "alice", want: signin.MsgEmailInvalid},
		{name: "no tld", email: "alice@example", want: signin.MsgEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			adapter := &MockAdapter{}
			ctrl := newController(t, adapter, pendingintent.NewMemoryStore())

			// Same input twice gives the same field error both times.
			for range 2 {
				require.NoError(t, ctrl.Submit(context.Background(), tt.email))
				assert.Equal(t, signin.StateIdle, ctrl.State())
				assert.Equal(t, tt.want, ctrl.Form().FieldErrors["email"])
				assert.Equal(t, signin.OutcomeNone, ctrl.Form().Outcome)
			}
			adapter.AssertNotCalled(t, "DispatchSignInLink", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_SendsLink(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).Return(nil).Twice()
	pending := pendingintent.NewMemoryStore()
	ctrl := newController(t, adapter, pending)

	require.NoError(t, ctrl.Submit(context.Background(), " Alice@Example.com "))

	assert.Equal(t, signin.StateLinkSent, ctrl.State())
	email, ok := pending.LoadPendingEmail()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", email)

	form := ctrl.Form()
	assert.Equal(t, signin.OutcomeLinkSent, form.Outcome)
	assert.Equal(t, signin.MsgCheckEmail, form.Notice)
	assert.False(t, form.Submitting)
	assert.Empty(t, form.FieldErrors)

	require.NoError(t, ctrl.Resend(context.Background()))
	assert.Equal(t, signin.StateLinkSent, ctrl.State())
	adapter.AssertExpectations(t)
}

func TestSubmit_DispatchFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		reason signin.Reason
	}{
		{name: "rate limited", err: identity.ErrRateLimited, reason: signin.ReasonRateLimited},
		{name: "invalid address", err: identity.ErrInvalidEmailAddress, reason: signin.ReasonInvalidEmail},
		{name: "network", err: identity.ErrNetwork, reason: signin.ReasonNetwork},
		{name: "raw error", err: errors.New("postmark: 500 internal"), reason: signin.ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			adapter := &MockAdapter{}
			adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).Return(tt.err)
			pending := pendingintent.NewMemoryStore()
			ctrl := newController(t, adapter, pending)

			require.NoError(t, ctrl.Submit(context.Background(), "alice@example.com"))

			assert.Equal(t, signin.StateIdle, ctrl.State())
			assert.Equal(t, tt.reason, ctrl.Reason())
			form := ctrl.Form()
			assert.Equal(t, signin.OutcomeAuthError, form.Outcome)
			assert.Equal(t, tt.reason.Message(), form.ErrorMessage)
			assert.NotContains(t, form.ErrorMessage, "postmark")
			_, ok := pending.LoadPendingEmail()
			assert.False(t, ok)
		})
	}
}

func TestDetectLink_CompletesWithPendingEmail(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true).Once()
	adapter.On("CurrentSession").Return(nil)
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(testSession("alice@example.com"), nil).Once()

	pending := pendingintent.NewMemoryStore()
	pending.SavePendingEmail("alice@example.com")
	ctrl := newController(t, adapter, pending)

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	// A second detection on the same page load is ignored.
	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))

	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	assert.Equal(t, landingURL, ctrl.Destination())
	_, ok := pending.LoadPendingEmail()
	assert.False(t, ok)
	adapter.AssertExpectations(t)
}

func TestDetectLink_NotALink(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", continueURL).Return(false)
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore())

	require.NoError(t, ctrl.DetectLink(context.Background(), continueURL))
	assert.Equal(t, signin.StateIdle, ctrl.State())
	adapter.AssertNotCalled(t, "CompleteSignInWithLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectLink_OtherDevicePromptsForEmail(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(nil)
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(testSession("alice@example.com"), nil).Once()
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore())

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	assert.Equal(t, signin.StateAwaitingEmailConfirmation, ctrl.State())
	assert.True(t, ctrl.Form().PromptEmail)
	adapter.AssertNotCalled(t, "CompleteSignInWithLink", mock.Anything, mock.Anything, mock.Anything)

	// A malformed address stays on the prompt.
	require.NoError(t, ctrl.ConfirmEmail(context.Background(), "alice"))
	assert.Equal(t, signin.StateAwaitingEmailConfirmation, ctrl.State())
	assert.Equal(t, signin.MsgEmailInvalid, ctrl.Form().FieldErrors["email"])

	require.NoError(t, ctrl.ConfirmEmail(context.Background(), "Alice@example.com"))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	assert.False(t, ctrl.Form().PromptEmail)
	adapter.AssertExpectations(t)
}

func TestComplete_ExpiredLinkClearsPendingEmail(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(nil)
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(nil, identity.ErrExpiredOrInvalidLink)

	pending := pendingintent.NewMemoryStore()
	pending.SavePendingEmail("alice@example.com")
	ctrl := newController(t, adapter, pending)

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))

	assert.Equal(t, signin.StateFailed, ctrl.State())
	assert.Equal(t, signin.ReasonExpiredLink, ctrl.Reason())
	assert.Equal(t, signin.ReasonExpiredLink.Message(), ctrl.Form().ErrorMessage)
	_, ok := pending.LoadPendingEmail()
	assert.False(t, ok)
}

func TestComplete_OtherFailuresKeepPendingEmail(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(nil)
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(nil, identity.ErrNetwork).Once()
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(testSession("alice@example.com"), nil).Once()

	pending := pendingintent.NewMemoryStore()
	pending.SavePendingEmail("alice@example.com")
	ctrl := newController(t, adapter, pending)

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	assert.Equal(t, signin.StateFailed, ctrl.State())
	assert.Equal(t, signin.ReasonNetwork, ctrl.Reason())
	email, ok := pending.LoadPendingEmail()
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", email)

	// Retry from the failed state with the kept address.
	require.NoError(t, ctrl.ConfirmEmail(context.Background(), email))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	assert.Equal(t, signin.ReasonNone, ctrl.Reason())
	assert.Empty(t, ctrl.Form().ErrorMessage)
	adapter.AssertExpectations(t)
}

func TestComplete_EmailMismatchPromptsAgain(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(nil)
	adapter.On("CompleteSignInWithLink", mock.Anything, "bob@example.com", linkURL).
		Return(nil, identity.ErrEmailMismatch).Once()
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Return(testSession("alice@example.com"), nil).Once()
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore())

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	require.NoError(t, ctrl.ConfirmEmail(context.Background(), "bob@example.com"))
	assert.Equal(t, signin.StateFailed, ctrl.State())
	assert.Equal(t, signin.ReasonEmailMismatch, ctrl.Reason())
	assert.True(t, ctrl.Form().PromptEmail)

	require.NoError(t, ctrl.ConfirmEmail(context.Background(), "alice@example.com"))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
}

func TestComplete_ExistingSessionShortCircuits(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(testSession("alice@example.com"))

	pending := pendingintent.NewMemoryStore()
	pending.SavePendingEmail("alice@example.com")
	ctrl := newController(t, adapter, pending)

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())

	// Completing again for the same URL shows no banner.
	require.NoError(t, ctrl.ConfirmEmail(context.Background(), "alice@example.com"))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	form := ctrl.Form()
	assert.Equal(t, signin.OutcomeNone, form.Outcome)
	assert.Empty(t, form.ErrorMessage)
	assert.Equal(t, landingURL, ctrl.Destination())
	_, ok := pending.LoadPendingEmail()
	assert.False(t, ok)
	adapter.AssertNotCalled(t, "CompleteSignInWithLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_ReentrantCallIsNoop(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("IsSignInLink", linkURL).Return(true)
	adapter.On("CurrentSession").Return(nil)

	pending := pendingintent.NewMemoryStore()
	pending.SavePendingEmail("alice@example.com")
	ctrl := newController(t, adapter, pending)

	var reentrantErr error
	adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
		Run(func(mock.Arguments) {
			reentrantErr = ctrl.ConfirmEmail(context.Background(), "alice@example.com")
		}).
		Return(testSession("alice@example.com"), nil).Once()

	require.NoError(t, ctrl.DetectLink(context.Background(), linkURL))
	assert.NoError(t, reentrantErr)
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	adapter.AssertNumberOfCalls(t, "CompleteSignInWithLink", 1)
}

func TestSignInWithProvider(t *testing.T) {
	t.Parallel()

	cb := identity.ProviderCallback{Code: "code", State: "state"}

	t.Run("popup dismissed", func(t *testing.T) {
		t.Parallel()
		adapter := &MockAdapter{}
		adapter.On("SignInWithPopupProvider", mock.Anything, identity.ProviderGoogle, cb).
			Return(nil, identity.ErrProviderPopupClosed)
		pending := &MockPendingStore{}
		ctrl := newController(t, adapter, pending)

		require.NoError(t, ctrl.SignInWithProvider(context.Background(), identity.ProviderGoogle, cb))

		assert.Equal(t, signin.StateFailed, ctrl.State())
		assert.Equal(t, signin.ReasonPopupClosed, ctrl.Reason())
		assert.Equal(t, signin.ReasonPopupClosed.Message(), ctrl.Form().ErrorMessage)
		pending.AssertNotCalled(t, "SavePendingEmail", mock.Anything)
		pending.AssertNotCalled(t, "LoadPendingEmail")
		pending.AssertNotCalled(t, "ClearPendingEmail")
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		adapter := &MockAdapter{}
		adapter.On("SignInWithPopupProvider", mock.Anything, identity.ProviderGitHub, cb).
			Return(testSession("alice@example.com"), nil)
		pending := &MockPendingStore{}
		ctrl := newController(t, adapter, pending)

		require.NoError(t, ctrl.SignInWithProvider(context.Background(), identity.ProviderGitHub, cb))

		assert.Equal(t, signin.StateAuthenticated, ctrl.State())
		assert.Equal(t, landingURL, ctrl.Destination())
		pending.AssertNotCalled(t, "ClearPendingEmail")
	})

	t.Run("begin returns consent url", func(t *testing.T) {
		t.Parallel()
		adapter := &MockAdapter{}
		adapter.On("BeginPopupSignIn", mock.Anything, identity.ProviderGoogle).
			Return("https://accounts.example.com/auth?state=s", nil)
		ctrl := newController(t, adapter, &MockPendingStore{})

		authURL, err := ctrl.BeginProviderSignIn(context.Background(), identity.ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, "https://accounts.example.com/auth?state=s", authURL)
		assert.Equal(t, signin.StateIdle, ctrl.State())
	})

	t.Run("begin with unknown provider", func(t *testing.T) {
		t.Parallel()
		adapter := &MockAdapter{}
		adapter.On("BeginPopupSignIn", mock.Anything, "myspace").Return("", identity.ErrUnknownProvider)
		ctrl := newController(t, adapter, &MockPendingStore{})

		_, err := ctrl.BeginProviderSignIn(context.Background(), "myspace")
		assert.ErrorIs(t, err, identity.ErrUnknownProvider)
		assert.Equal(t, signin.StateFailed, ctrl.State())
		assert.Equal(t, signin.ReasonUnknownProvider, ctrl.Reason())
	})
}

func TestController_DiscardsLateResults(t *testing.T) {
	t.Parallel()

	t.Run("closed while dispatching", func(t *testing.T) {
		t.Parallel()
		adapter := &MockAdapter{}
		pending := pendingintent.NewMemoryStore()
		ctrl := newController(t, adapter, pending)
		adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).
			Run(func(mock.Arguments) { ctrl.Close() }).
			Return(nil)

		require.NoError(t, ctrl.Submit(context.Background(), "alice@example.com"))

		assert.Equal(t, signin.StateLinkDispatching, ctrl.State())
		_, ok := pending.LoadPendingEmail()
		assert.False(t, ok)

		assert.ErrorIs(t, ctrl.Submit(context.Background(), "alice@example.com"), signin.ErrClosed)
	})

	t.Run("request cancelled while completing", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		adapter := &MockAdapter{}
		adapter.On("IsSignInLink", linkURL).Return(true)
		adapter.On("CurrentSession").Return(nil)
		adapter.On("CompleteSignInWithLink", mock.Anything, "alice@example.com", linkURL).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, identity.ErrNetwork)

		pending := pendingintent.NewMemoryStore()
		pending.SavePendingEmail("alice@example.com")
		ctrl := newController(t, adapter, pending)

		require.NoError(t, ctrl.DetectLink(ctx, linkURL))
		assert.Equal(t, signin.StateCompleting, ctrl.State())
		assert.Empty(t, ctrl.Form().ErrorMessage)
	})
}

func TestController_Timeout(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).
		Return(context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore(), signin.WithTimeout(20*time.Millisecond))

	require.NoError(t, ctrl.Submit(context.Background(), "alice@example.com"))
	assert.Equal(t, signin.StateIdle, ctrl.State())
	assert.Equal(t, signin.ReasonNetwork, ctrl.Reason())
}

func TestController_FollowsSessionSource(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("SignInWithPopupProvider", mock.Anything, identity.ProviderGoogle, mock.Anything).
		Return(testSession("alice@example.com"), nil)
	src := &sessionSource{}
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore(), signin.WithSessionSource(src))

	// Signed in from another tab.
	src.emit(testSession("alice@example.com"))
	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	assert.Equal(t, landingURL, ctrl.Destination())

	// Signed out from another tab.
	src.emit(nil)
	assert.Equal(t, signin.StateIdle, ctrl.State())
	assert.Empty(t, ctrl.Destination())

	ctrl.Close()
	src.emit(testSession("alice@example.com"))
	assert.Equal(t, signin.StateIdle, ctrl.State())
}

func TestController_SessionFromOtherTabLeavesResponseAlone(t *testing.T) {
	t.Parallel()

	cookies, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	pending := pendingintent.NewCookieFactory(cookies, time.Minute, nil).For(rec, req, "browser-1")

	adapter := &MockAdapter{}
	adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).Return(nil)
	src := &sessionSource{}
	ctrl := newController(t, adapter, pending, signin.WithSessionSource(src))
	require.NoError(t, ctrl.Submit(context.Background(), "alice@example.com"))
	setCookies := len(rec.Header().Values("Set-Cookie"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		src.emit(testSession("alice@example.com"))
	}()
	// The handler keeps writing its response while the session arrives.
	for i := range 100 {
		rec.Header().Set("X-Render", strconv.Itoa(i))
	}
	<-done

	assert.Equal(t, signin.StateAuthenticated, ctrl.State())
	assert.Equal(t, landingURL, ctrl.Destination())
	assert.Len(t, rec.Header().Values("Set-Cookie"), setCookies)
}

type recorder struct {
	transitions []string
	failures    []string
}

func (r *recorder) Transition(from, to string) { r.transitions = append(r.transitions, from+">"+to) }
func (r *recorder) Failure(reason string)      { r.failures = append(r.failures, reason) }

func TestController_RecordsTransitions(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("DispatchSignInLink", mock.Anything, "alice@example.com", continueURL).Return(identity.ErrRateLimited)
	rec := &recorder{}
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore(), signin.WithRecorder(rec))

	require.NoError(t, ctrl.Submit(context.Background(), "alice@example.com"))

	assert.Equal(t, []string{
		"idle>validating_input",
		"validating_input>link_dispatching",
		"link_dispatching>failed",
		"failed>idle",
	}, rec.transitions)
	assert.Equal(t, []string{"rate_limited"}, rec.failures)
}

func TestController_RejectsOutOfOrderActions(t *testing.T) {
	t.Parallel()

	adapter := &MockAdapter{}
	adapter.On("CurrentSession").Return(nil)
	ctrl := newController(t, adapter, pendingintent.NewMemoryStore())

	err := ctrl.ConfirmEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, signin.ErrInvalidState)
	err = ctrl.Resend(context.Background())
	assert.ErrorIs(t, err, signin.ErrInvalidState)
	assert.Equal(t, signin.StateIdle, ctrl.State())
}
