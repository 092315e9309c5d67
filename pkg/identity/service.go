package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkaura/linkaura/pkg/broadcast"
	"github.com/linkaura/linkaura/pkg/email"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/ratelimiter"
	"github.com/linkaura/linkaura/pkg/sanitizer"
	"github.com/linkaura/linkaura/pkg/token"
	"github.com/linkaura/linkaura/pkg/validator"
)

const maxDisplayName = 80

// Recorder receives service level events for metrics.
type Recorder interface {
	LinkDispatched(outcome string)
	SessionStarted(provider string)
	SessionEnded()
}

type noopRecorder struct{}

func (noopRecorder) LinkDispatched(string) {}
func (noopRecorder) SessionStarted(string) {}
func (noopRecorder) SessionEnded()         {}

// Service is the identity backend shared by every browser. It issues and
// completes sign-in links, runs provider sign-ins, stores sessions per
// browser ID and publishes every session change on a hub keyed by browser
// ID. Use Client to get the per-browser Adapter.
type Service struct {
	cfg        Config
	baseURL    *url.URL
	linkSecret string
	creds      *Credentials
	sender     email.Sender

	accounts  AccountStore
	sessions  SessionStore
	ledger    Ledger
	providers map[string]ProviderAdapter

	addressLimiter ratelimiter.Limiter
	browserLimiter ratelimiter.Limiter

	hub      *broadcast.Hub[*Session]
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAccountStore(store AccountStore) Option {
	return func(s *Service) { s.accounts = store }
}

func WithSessionStore(store SessionStore) Option {
	return func(s *Service) { s.sessions = store }
}

func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithProvider enables sign-in through adapter.
func WithProvider(adapter ProviderAdapter) Option {
	return func(s *Service) { s.providers[adapter.ProviderID()] = adapter }
}

// WithRateLimiters replaces the per-address and per-browser dispatch
// limiters.
func WithRateLimiters(perAddress, perBrowser ratelimiter.Limiter) Option {
	return func(s *Service) {
		s.addressLimiter = perAddress
		s.browserLimiter = perBrowser
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock sets the time source used for link expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the service. Stores default to in-memory
// implementations and the dispatch limiters to in-memory limiters built
// from cfg.
func NewService(cfg Config, linkSecret string, creds *Credentials, sender email.Sender, opts ...Option) (*Service, error) {
	if linkSecret == "" {
		return nil, fmt.Errorf("%w: link secret is required", ErrInvalidConfig)
	}
	if creds == nil || sender == nil {
		return nil, fmt.Errorf("%w: credentials and sender are required", ErrInvalidConfig)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.LinkTTL <= 0 || cfg.StateTTL <= 0 {
		return nil, fmt.Errorf("%w: link and state ttl must be positive", ErrInvalidConfig)
	}

	s := &Service{
		cfg:        cfg,
		baseURL:    base,
		linkSecret: linkSecret,
		creds:      creds,
		sender:     sender,
		providers:  make(map[string]ProviderAdapter),
		hub:        broadcast.NewHub[*Session](16),
		recorder:   noopRecorder{},
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.accounts == nil {
		s.accounts = NewMemoryAccountStore()
	}
	if s.sessions == nil {
		s.sessions = NewMemorySessionStore()
	}
	if s.ledger == nil {
		s.ledger = NewMemoryLedger()
	}
	if s.addressLimiter == nil {
		if s.addressLimiter, err = ratelimiter.NewMemoryLimiter(ratelimiter.Rule{
			Limit: cfg.DispatchPerAddress, Window: cfg.DispatchWindow,
		}); err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
	}
	if s.browserLimiter == nil {
		if s.browserLimiter, err = ratelimiter.NewMemoryLimiter(ratelimiter.Rule{
			Limit: cfg.DispatchPerBrowser, Window: cfg.DispatchWindow,
		}); err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
	}
	return s, nil
}

// Providers returns the enabled provider IDs in sorted order.
func (s *Service) Providers() []string {
	ids := make([]string, 0, len(s.providers))
	for id := range s.providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsSignInLink reports whether rawURL is a sign-in link issued by this
// service. It reads no state and never fails.
func (s *Service) IsSignInLink(rawURL string) bool {
	return isSignInLink(rawURL, s.linkSecret)
}

// DispatchSignInLink e-mails a one-time sign-in link to address. The link
// returns the browser to continueURL in link mode. No session or account
// is created here.
func (s *Service) DispatchSignInLink(ctx context.Context, browserID, address, continueURL string) error {
	address = sanitizer.NormalizeEmail(address)
	if err := validator.Apply(validator.ValidEmail("email", address)); err != nil {
		s.recorder.LinkDispatched("invalid_email")
		return ErrInvalidEmailAddress
	}

	cont, err := s.checkContinueURL(continueURL)
	if err != nil {
		s.recorder.LinkDispatched("unauthorized_continue_url")
		return err
	}

	if !s.allow(ctx, s.addressLimiter, "address:"+address) || !s.allow(ctx, s.browserLimiter, "browser:"+browserID) {
		s.recorder.LinkDispatched("rate_limited")
		s.logger.WarnContext(ctx, "sign-in link rate limited",
			logger.Component("identity"),
			logger.Email(address),
			logger.BrowserID(browserID),
		)
		return ErrRateLimited
	}

	code, err := token.Generate(linkPayload{
		ID:       uuid.NewString(),
		Email:    address,
		Subject:  subjectSignInLink,
		ExpireAt: s.now().Add(s.cfg.LinkTTL).Unix(),
	}, s.linkSecret)
	if err != nil {
		return fmt.Errorf("generate sign-in link: %w", err)
	}
	link := buildSignInLink(cont, code)

	html, err := email.Render(ctx, signInLinkEmail(s.cfg.ProductName, link, s.cfg.LinkTTL))
	if err != nil {
		return fmt.Errorf("render sign-in email: %w", err)
	}
	msg := email.Message{
		To:       address,
		Subject:  signInLinkSubject(s.cfg.ProductName),
		HTMLBody: html,
		TextBody: signInLinkText(s.cfg.ProductName, link, s.cfg.LinkTTL),
		Tag:      "sign-in-link",
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.recorder.LinkDispatched("send_failed")
		s.logger.ErrorContext(ctx, "failed to send sign-in link",
			logger.Component("identity"),
			logger.Email(address),
			logger.Error(err),
		)
		if errors.Is(err, email.ErrInvalidMessage) {
			return errors.Join(ErrInvalidEmailAddress, err)
		}
		return errors.Join(ErrNetwork, err)
	}

	s.recorder.LinkDispatched("sent")
	s.logger.InfoContext(ctx, "sign-in link sent",
		logger.Component("identity"),
		logger.Email(address),
		logger.BrowserID(browserID),
	)
	return nil
}

// CompleteSignInWithLink exchanges the code in rawURL for a session. The
// address must be the one the link was sent to. Each link completes once.
func (s *Service) CompleteSignInWithLink(ctx context.Context, browserID, address, rawURL string) (*Session, error) {
	code, ok := linkCode(rawURL)
	if !ok {
		return nil, ErrExpiredOrInvalidLink
	}
	payload, err := token.Parse[linkPayload](code, s.linkSecret)
	if err != nil || payload.Subject != subjectSignInLink || payload.ID == "" {
		return nil, ErrExpiredOrInvalidLink
	}
	expiresAt := time.Unix(payload.ExpireAt, 0)
	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredOrInvalidLink
	}

	// A mistyped address must not burn the link.
	if sanitizer.NormalizeEmail(address) != payload.Email {
		s.logger.InfoContext(ctx, "sign-in link email mismatch",
			logger.Component("identity"),
			logger.Email(address),
			logger.BrowserID(browserID),
		)
		return nil, ErrEmailMismatch
	}

	ttl := max(expiresAt.Sub(s.now()), time.Second)
	if err := s.ledger.Claim(ctx, "link:"+payload.ID, ttl); err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			return nil, ErrExpiredOrInvalidLink
		}
		return nil, errors.Join(ErrNetwork, err)
	}

	acc, err := s.linkAccount(ctx, payload.Email)
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}
	return s.startSession(ctx, browserID, acc, ProviderEmailLink)
}

// linkAccount returns the account for address, registering it on first
// use. Completing a link proves ownership of the address.
func (s *Service) linkAccount(ctx context.Context, address string) (*Account, error) {
	acc, err := s.accounts.AccountByEmail(ctx, address)
	switch {
	case err == nil:
		if !acc.EmailVerified {
			if err := s.accounts.MarkEmailVerified(ctx, acc.ID); err != nil {
				return nil, err
			}
			acc.EmailVerified = true
		}
		return acc, nil
	case !errors.Is(err, ErrAccountNotFound):
		return nil, err
	}

	now := s.now().UTC()
	acc = &Account{
		ID:            uuid.New(),
		Email:         address,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, ErrAccountExists) {
			return s.accounts.AccountByEmail(ctx, address)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "account registered",
		logger.Component("identity"),
		logger.AccountID(acc.ID),
		logger.Provider(ProviderEmailLink),
	)
	return acc, nil
}

// BeginPopupSignIn starts a provider sign-in for the browser and returns
// the provider consent URL. The state it embeds is bound to browserID and
// expires after Config.StateTTL.
func (s *Service) BeginPopupSignIn(ctx context.Context, browserID, provider string) (string, error) {
	adapter, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	state, err := newState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.ledger.Put(ctx, "state:"+state, stateValue(provider, browserID), s.cfg.StateTTL); err != nil {
		return "", errors.Join(ErrProviderNetwork, err)
	}
	return adapter.AuthURL(state), nil
}

// SignInWithPopupProvider finishes a provider sign-in from the callback
// the provider sent back.
func (s *Service) SignInWithPopupProvider(ctx context.Context, browserID, provider string, cb ProviderCallback) (*Session, error) {
	adapter, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}

	if cb.Error != "" {
		if cb.State != "" {
			_, _ = s.ledger.Take(ctx, "state:"+cb.State)
		}
		s.logger.InfoContext(ctx, "provider sign-in returned error",
			logger.Component("identity"),
			logger.Provider(provider),
			slog.String("error_code", cb.Error),
			slog.String("error_description", cb.ErrorDescription),
		)
		return nil, callbackError(cb.Error)
	}

	if cb.State == "" || cb.Code == "" {
		return nil, ErrProviderPopupBlocked
	}
	owner, err := s.ledger.Take(ctx, "state:"+cb.State)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrProviderPopupBlocked
		}
		return nil, errors.Join(ErrProviderNetwork, err)
	}
	if owner != stateValue(provider, browserID) {
		s.logger.WarnContext(ctx, "provider state issued to another browser",
			logger.Component("identity"),
			logger.Provider(provider),
			logger.BrowserID(browserID),
		)
		return nil, ErrProviderPopupBlocked
	}

	profile, err := adapter.ResolveProfile(ctx, cb.Code)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to resolve provider profile",
			logger.Component("identity"),
			logger.Provider(provider),
			logger.Error(err),
		)
		if errors.Is(err, ErrUnverifiedProviderEmail) || errors.Is(err, ErrProviderNetwork) {
			return nil, err
		}
		return nil, errors.Join(ErrProviderNetwork, err)
	}
	profile.Email = sanitizer.NormalizeEmail(profile.Email)
	profile.Name = sanitizer.PlainText(profile.Name, maxDisplayName)

	acc, err := s.providerAccount(ctx, provider, profile)
	if err != nil {
		if errors.Is(err, ErrUnverifiedProviderEmail) {
			return nil, err
		}
		return nil, errors.Join(ErrNetwork, err)
	}
	return s.startSession(ctx, browserID, acc, provider)
}

// providerAccount resolves the account for a provider profile: by provider
// link first, then by verified e-mail, otherwise a new account.
func (s *Service) providerAccount(ctx context.Context, provider string, p ProviderProfile) (*Account, error) {
	acc, err := s.accounts.AccountByProvider(ctx, provider, p.ProviderUserID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	if p.Email != "" {
		acc, err = s.accounts.AccountByEmail(ctx, p.Email)
		switch {
		case err == nil:
			if !p.EmailVerified {
				return nil, ErrUnverifiedProviderEmail
			}
			if err := s.accounts.LinkProvider(ctx, acc.ID, provider, p.ProviderUserID); err != nil {
				return nil, err
			}
			return acc, nil
		case !errors.Is(err, ErrAccountNotFound):
			return nil, err
		}
	}

	if p.Email == "" {
		return nil, ErrUnverifiedProviderEmail
	}

	now := s.now().UTC()
	acc = &Account{
		ID:            uuid.New(),
		Email:         p.Email,
		DisplayName:   p.Name,
		EmailVerified: p.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}
	if err := s.accounts.LinkProvider(ctx, acc.ID, provider, p.ProviderUserID); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account registered",
		logger.Component("identity"),
		logger.AccountID(acc.ID),
		logger.Provider(provider),
	)
	return acc, nil
}

// startSession issues a session, stores it for the browser and announces
// it to subscribers.
func (s *Service) startSession(ctx context.Context, browserID string, acc *Account, provider string) (*Session, error) {
	sess, err := s.creds.Issue(acc, provider)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, browserID, sess.Token, s.creds.TTL()); err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}

	s.recorder.SessionStarted(provider)
	s.logger.InfoContext(ctx, "session started",
		logger.Component("identity"),
		logger.AccountID(acc.ID),
		logger.SessionID(sess.ID),
		logger.Provider(provider),
		logger.BrowserID(browserID),
	)
	s.hub.Publish(ctx, browserID, sess.Clone())
	return sess, nil
}

// CurrentSession loads the browser's session. A missing, expired or
// invalid credential yields nil without error; invalid ones are removed.
func (s *Service) CurrentSession(ctx context.Context, browserID string) (*Session, error) {
	raw, err := s.sessions.Get(ctx, browserID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrNetwork, err)
	}

	sess, err := s.creds.Parse(raw)
	if err != nil {
		s.logger.DebugContext(ctx, "dropping invalid session credential",
			logger.Component("identity"),
			logger.BrowserID(browserID),
			logger.Error(err),
		)
		if err := s.sessions.Delete(ctx, browserID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete invalid session", logger.Error(err))
		}
		return nil, nil
	}
	return sess, nil
}

// SignOut ends the browser's session and tells subscribers.
func (s *Service) SignOut(ctx context.Context, browserID string) error {
	if err := s.sessions.Delete(ctx, browserID); err != nil {
		return errors.Join(ErrNetwork, err)
	}
	s.recorder.SessionEnded()
	s.logger.InfoContext(ctx, "session ended",
		logger.Component("identity"),
		logger.BrowserID(browserID),
	)
	s.hub.Publish(ctx, browserID, nil)
	return nil
}

// Subscribe returns a subscription to session changes of one browser.
func (s *Service) Subscribe(ctx context.Context, browserID string) broadcast.Subscriber[*Session] {
	return s.hub.Subscribe(ctx, browserID)
}

// Close ends every subscription.
func (s *Service) Close() error {
	return s.hub.Close()
}

func (s *Service) checkContinueURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrUnauthorizedContinueURL
	}
	if !strings.EqualFold(u.Scheme, s.baseURL.Scheme) || !strings.EqualFold(u.Host, s.baseURL.Host) {
		return nil, ErrUnauthorizedContinueURL
	}
	return u, nil
}

// allow fails open: a limiter outage must not block sign-in.
func (s *Service) allow(ctx context.Context, l ratelimiter.Limiter, key string) bool {
	res, err := l.Allow(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limiter unavailable",
			logger.Component("identity"),
			logger.Error(err),
		)
		return true
	}
	return res.Allowed()
}

func callbackError(code string) error {
	switch code {
	case "access_denied":
		return ErrProviderPopupClosed
	case "server_error", "temporarily_unavailable":
		return ErrProviderNetwork
	default:
		return ErrProviderPopupBlocked
	}
}

func stateValue(provider, browserID string) string {
	return provider + "|" + browserID
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
