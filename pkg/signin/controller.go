package signin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/pendingintent"
	"github.com/linkaura/linkaura/pkg/sanitizer"
	"github.com/linkaura/linkaura/pkg/statemachine"
	"github.com/linkaura/linkaura/pkg/validator"
)

// Field validation messages.
const (
	MsgEmailRequired = "Email is required"
	MsgEmailInvalid  = "Please enter a valid email"
)

// MsgCheckEmail is the notice shown once a link was sent.
const MsgCheckEmail = "Check your email for a sign-in link."

// DefaultTimeout bounds each call into the identity service.
const DefaultTimeout = 15 * time.Second

// Outcome is the banner the form shows.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeLinkSent  Outcome = "link_sent"
	OutcomeAuthError Outcome = "auth_error"
)

// FormState is what the sign-in screen renders.
type FormState struct {
	Email        string
	FieldErrors  map[string]string
	Submitting   bool
	Outcome      Outcome
	ErrorMessage string
	// PromptEmail asks the user to type the address the link was sent to.
	PromptEmail bool
	Notice      string
}

// Recorder receives flow events for metrics.
type Recorder interface {
	Transition(from, to string)
	Failure(reason string)
}

type noopRecorder struct{}

func (noopRecorder) Transition(string, string) {}
func (noopRecorder) Failure(string)            {}

// SessionSource delivers session changes to the controller. It is
// satisfied by *observer.Observer.
type SessionSource interface {
	Observe(name string, fn func(*identity.Session)) (cancel func())
}

// Config holds the URLs the flow needs.
type Config struct {
	// ContinueURL is where sign-in links return to. It must point at the
	// sign-in screen.
	ContinueURL string
	// LandingURL is where the user goes once signed in.
	LandingURL string
}

// Controller runs the sign-in flow of one page load. It is safe for
// concurrent use; a completion already in flight turns further completion
// attempts into no-ops.
type Controller struct {
	cfg      Config
	adapter  identity.Adapter
	pending  pendingintent.Store
	machine  *statemachine.Machine[State, Event]
	logger   *slog.Logger
	recorder Recorder
	timeout  time.Duration

	mu          sync.Mutex
	form        FormState
	reason      Reason
	linkURL     string
	destination string

	detectOnce sync.Once
	inFlight   atomic.Bool
	closed     atomic.Bool
	stopWatch  func()
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithTimeout bounds each identity call. Zero or negative disables the
// bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithSessionSource makes the controller follow session changes made
// elsewhere, such as a sign-out in another tab.
func WithSessionSource(src SessionSource) Option {
	return func(c *Controller) {
		c.stopWatch = src.Observe("signin", c.onSessionChange)
	}
}

// New returns a controller in StateIdle.
func New(adapter identity.Adapter, pending pendingintent.Store, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		adapter:  adapter,
		pending:  pending,
		logger:   logger.Discard(),
		recorder: noopRecorder{},
		timeout:  DefaultTimeout,
		form:     FormState{Outcome: OutcomeNone},
	}
	hasLink := func(context.Context, State, Event, any) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.linkURL != ""
	}
	c.machine = statemachine.MustNew(StateIdle,
		statemachine.WithTransitions(transitions(hasLink)...),
		statemachine.WithHook(c.afterTransition),
	)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.machine.Current()
}

// Reason is why the flow last failed, or ReasonNone.
func (c *Controller) Reason() Reason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Form returns a copy of the form state.
func (c *Controller) Form() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.form
	f.FieldErrors = maps.Clone(c.form.FieldErrors)
	return f
}

// Destination is where to navigate after StateAuthenticated was reached.
// Empty before that.
func (c *Controller) Destination() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destination
}

// Submit requests a sign-in link for email.
func (c *Controller) Submit(ctx context.Context, email string) error {
	return c.requestLink(ctx, EventSubmit, email)
}

// Resend requests another link for the address of the last one.
func (c *Controller) Resend(ctx context.Context) error {
	c.mu.Lock()
	email := c.form.Email
	c.mu.Unlock()
	return c.requestLink(ctx, EventResend, email)
}

func (c *Controller) requestLink(ctx context.Context, ev Event, email string) error {
	release, ok, err := c.begin()
	if !ok {
		return err
	}
	defer release()

	if err := c.fire(ctx, ev); err != nil {
		return err
	}

	email = strings.TrimSpace(email)
	c.update(func(f *FormState) {
		*f = FormState{Email: email, Outcome: OutcomeNone}
	})
	c.setReason(ReasonNone)

	if fieldErrors := validateEmail(email); fieldErrors != nil {
		c.update(func(f *FormState) { f.FieldErrors = fieldErrors })
		return c.fire(ctx, EventInvalid)
	}

	if err := c.fire(ctx, EventValid); err != nil {
		return err
	}
	c.update(func(f *FormState) { f.Submitting = true })

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	normalized := sanitizer.NormalizeEmail(email)
	dispatchErr := c.adapter.DispatchSignInLink(opCtx, normalized, c.cfg.ContinueURL)
	if c.discard(ctx, "dispatch") {
		return nil
	}

	if dispatchErr != nil {
		reason := c.fail(ctx, dispatchErr)
		c.update(func(f *FormState) { f.Submitting = false })
		if err := c.fire(ctx, EventDispatchFailed); err != nil {
			return err
		}
		c.logger.DebugContext(ctx, "dispatch failed, back to idle", logger.Reason(string(reason)))
		return c.fire(ctx, EventRecover)
	}

	c.pending.SavePendingEmail(normalized)
	c.update(func(f *FormState) {
		f.Submitting = false
		f.Outcome = OutcomeLinkSent
		f.Notice = MsgCheckEmail
	})
	return c.fire(ctx, EventDispatched)
}

// DetectLink inspects the page URL once per controller. When it is a
// sign-in link the flow completes with the pending address, or asks for
// the address when none is saved.
func (c *Controller) DetectLink(ctx context.Context, currentURL string) error {
	var err error
	c.detectOnce.Do(func() { err = c.detectLink(ctx, currentURL) })
	return err
}

func (c *Controller) detectLink(ctx context.Context, currentURL string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.adapter.IsSignInLink(currentURL) {
		return nil
	}

	c.mu.Lock()
	c.linkURL = currentURL
	c.mu.Unlock()

	if err := c.fire(ctx, EventLinkDetected); err != nil {
		return err
	}
	email, ok := c.pending.LoadPendingEmail()
	if err := c.fire(ctx, EventAwaitEmail); err != nil {
		return err
	}
	if !ok {
		c.update(func(f *FormState) { f.PromptEmail = true })
		return nil
	}

	c.update(func(f *FormState) { f.Email = email })
	return c.complete(ctx, email)
}

// ConfirmEmail completes a detected link with an address typed by the
// user.
func (c *Controller) ConfirmEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if fieldErrors := validateEmail(email); fieldErrors != nil {
		c.update(func(f *FormState) {
			f.Email = email
			f.FieldErrors = fieldErrors
		})
		return nil
	}
	c.update(func(f *FormState) {
		f.Email = email
		f.FieldErrors = nil
	})
	return c.complete(ctx, sanitizer.NormalizeEmail(email))
}

func (c *Controller) complete(ctx context.Context, email string) error {
	release, ok, err := c.begin()
	if !ok {
		return err
	}
	defer release()

	if c.adapter.CurrentSession() != nil {
		return c.alreadySignedIn(ctx)
	}

	if err := c.fire(ctx, EventConfirm); err != nil {
		return err
	}
	c.update(func(f *FormState) {
		f.Submitting = true
		f.ErrorMessage = ""
		f.Outcome = OutcomeNone
	})
	c.setReason(ReasonNone)

	c.mu.Lock()
	linkURL := c.linkURL
	c.mu.Unlock()

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	_, completeErr := c.adapter.CompleteSignInWithLink(opCtx, email, linkURL)
	if c.discard(ctx, "complete") {
		return nil
	}
	c.update(func(f *FormState) { f.Submitting = false })

	if completeErr != nil {
		if errors.Is(completeErr, identity.ErrExpiredOrInvalidLink) {
			// An earlier attempt may already have signed the browser in.
			if c.adapter.CurrentSession() != nil {
				return c.finish(ctx, EventCompleted)
			}
			c.pending.ClearPendingEmail()
		}
		reason := c.fail(ctx, completeErr)
		if reason == ReasonEmailMismatch {
			c.update(func(f *FormState) { f.PromptEmail = true })
		}
		return c.fire(ctx, EventCompletionFailed)
	}

	return c.finish(ctx, EventCompleted)
}

// BeginProviderSignIn returns the provider consent URL to redirect to.
func (c *Controller) BeginProviderSignIn(ctx context.Context, provider string) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	authURL, err := c.adapter.BeginPopupSignIn(opCtx, provider)
	if err == nil {
		return authURL, nil
	}
	if c.discard(ctx, "begin_provider") {
		return "", err
	}

	if ferr := c.fire(ctx, EventProviderStart); ferr != nil {
		return "", ferr
	}
	c.fail(ctx, err)
	if ferr := c.fire(ctx, EventCompletionFailed); ferr != nil {
		return "", ferr
	}
	return "", err
}

// SignInWithProvider finishes a provider sign-in. The pending address is
// not touched.
func (c *Controller) SignInWithProvider(ctx context.Context, provider string, cb identity.ProviderCallback) error {
	release, ok, err := c.begin()
	if !ok {
		return err
	}
	defer release()

	if err := c.fire(ctx, EventProviderStart); err != nil {
		return err
	}
	c.update(func(f *FormState) {
		f.Submitting = true
		f.ErrorMessage = ""
		f.Outcome = OutcomeNone
	})
	c.setReason(ReasonNone)

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	_, signInErr := c.adapter.SignInWithPopupProvider(opCtx, provider, cb)
	if c.discard(ctx, "provider") {
		return nil
	}
	c.update(func(f *FormState) { f.Submitting = false })

	if signInErr != nil {
		c.fail(ctx, signInErr)
		return c.fire(ctx, EventCompletionFailed)
	}

	c.mu.Lock()
	c.destination = c.cfg.LandingURL
	c.mu.Unlock()
	return c.fire(ctx, EventCompleted)
}

// Close detaches the controller. Results of calls still in flight are
// dropped and later calls fail with ErrClosed.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}
	if c.stopWatch != nil {
		c.stopWatch()
	}
}

// alreadySignedIn ends the flow without calling the identity service
// because the browser already has a session.
func (c *Controller) alreadySignedIn(ctx context.Context) error {
	c.logger.DebugContext(ctx, "session already present, skipping completion", logger.Component("signin"))
	if c.State() == StateAuthenticated {
		c.pending.ClearPendingEmail()
		c.mu.Lock()
		c.destination = c.cfg.LandingURL
		c.mu.Unlock()
		return nil
	}
	return c.finish(ctx, EventSessionFound)
}

func (c *Controller) finish(ctx context.Context, ev Event) error {
	c.pending.ClearPendingEmail()
	return c.settle(ctx, ev)
}

// settle moves to the signed-in state without touching the pending store.
// Stores may be bound to the request's ResponseWriter, so only calls made
// on the handler goroutine may write them.
func (c *Controller) settle(ctx context.Context, ev Event) error {
	c.update(func(f *FormState) {
		f.Submitting = false
		f.ErrorMessage = ""
		f.Outcome = OutcomeNone
		f.PromptEmail = false
	})
	c.mu.Lock()
	c.reason = ReasonNone
	c.destination = c.cfg.LandingURL
	c.mu.Unlock()
	return c.fire(ctx, ev)
}

func (c *Controller) onSessionChange(sess *identity.Session) {
	if c.closed.Load() {
		return
	}
	ctx := context.Background()
	switch {
	case sess == nil && c.State() == StateAuthenticated:
		c.mu.Lock()
		c.destination = ""
		c.form = FormState{Outcome: OutcomeNone}
		c.mu.Unlock()
		_ = c.fire(ctx, EventSignedOut)
	case sess != nil && !c.inFlight.Load() && c.machine.CanFire(ctx, EventSessionFound, nil):
		if release, ok, _ := c.begin(); ok {
			defer release()
			_ = c.settle(ctx, EventSessionFound)
		}
	}
}

// begin claims the single in-flight slot. ok is false when the controller
// is closed (err is ErrClosed) or another call holds the slot (err nil).
func (c *Controller) begin() (release func(), ok bool, err error) {
	if c.closed.Load() {
		return nil, false, ErrClosed
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	return func() { c.inFlight.Store(false) }, true, nil
}

func (c *Controller) fire(ctx context.Context, ev Event) error {
	if _, err := c.machine.Fire(ctx, ev, nil); err != nil {
		c.logger.WarnContext(ctx, "sign-in transition refused",
			logger.Component("signin"),
			logger.State(string(c.State())),
			logger.Event(string(ev)),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

func (c *Controller) afterTransition(ctx context.Context, from, to State, ev Event, _ any) {
	c.recorder.Transition(string(from), string(to))
	c.logger.DebugContext(ctx, "sign-in transition",
		logger.Component("signin"),
		logger.Transition(string(from), string(to)),
		logger.Event(string(ev)),
	)
}

// fail records the classified reason and banner for err.
func (c *Controller) fail(ctx context.Context, err error) Reason {
	reason := Classify(err)
	c.logger.InfoContext(ctx, "sign-in failed",
		logger.Component("signin"),
		logger.Reason(string(reason)),
		logger.Error(err),
	)
	c.recorder.Failure(string(reason))
	c.mu.Lock()
	c.reason = reason
	c.form.Outcome = OutcomeAuthError
	c.form.ErrorMessage = reason.Message()
	c.mu.Unlock()
	return reason
}

// discard reports whether a result must be dropped because the
// controller closed or the caller went away while the call ran.
func (c *Controller) discard(ctx context.Context, op string) bool {
	if !c.closed.Load() && ctx.Err() == nil {
		return false
	}
	c.logger.DebugContext(ctx, "dropping sign-in result",
		logger.Component("signin"),
		slog.String("op", op),
	)
	return true
}

func (c *Controller) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Controller) update(fn func(*FormState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.form)
}

func (c *Controller) setReason(r Reason) {
	c.mu.Lock()
	c.reason = r
	c.mu.Unlock()
}

// validateEmail returns the field errors for email, or nil.
func validateEmail(email string) map[string]string {
	err := validator.Apply(
		validator.RequiredString("email", email).WithMessage(MsgEmailRequired),
		validator.EmailShape("email", email).WithMessage(MsgEmailInvalid),
	)
	if ve := validator.Extract(err); ve != nil {
		return ve.Map()
	}
	return nil
}
