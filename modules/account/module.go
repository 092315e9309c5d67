package account

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/binder"
	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/pendingintent"
	"github.com/linkaura/linkaura/pkg/ratelimiter"
	"github.com/linkaura/linkaura/pkg/signin"
)

// Module serves the sign-in flow and the pages around it.
type Module struct {
	svc     *identity.Service
	cookies *cookie.Manager
	pending pendingintent.Factory
	cfg     Config

	views           Views
	logger          *slog.Logger
	recorder        signin.Recorder
	dispatchLimiter ratelimiter.Limiter
	timeout         time.Duration
	errorHandler    handler.ErrorHandler[handler.Context]
}

type Option func(*Module)

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithViews replaces the built-in views. Nil fields keep the default.
func WithViews(v Views) Option {
	return func(m *Module) { m.views = m.views.merge(v) }
}

func WithRecorder(r signin.Recorder) Option {
	return func(m *Module) { m.recorder = r }
}

// WithDispatchLimiter limits link requests per client IP on top of the
// per-address and per-browser limits of the identity service. The address
// comes from clientip.Middleware, which must run upstream.
func WithDispatchLimiter(l ratelimiter.Limiter) Option {
	return func(m *Module) { m.dispatchLimiter = l }
}

// WithTimeout bounds each identity call made by the sign-in flow.
func WithTimeout(d time.Duration) Option {
	return func(m *Module) { m.timeout = d }
}

func New(svc *identity.Service, cookies *cookie.Manager, pending pendingintent.Factory, cfg Config, opts ...Option) *Module {
	m := &Module{
		svc:     svc,
		cookies: cookies,
		pending: pending,
		cfg:     cfg,
		views:   DefaultViews(),
		logger:  logger.Discard(),
		timeout: signin.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.LandingPath == "" {
		m.cfg.LandingPath = "/account"
	}
	if m.cfg.BrowserCookie == "" {
		m.cfg.BrowserCookie = "lk_browser"
	}
	m.errorHandler = handler.NewErrorHandler(m.logger, handler.ErrorHandlerConfig{
		ErrorPage:  m.views.ErrorPage,
		ErrorToast: m.views.ErrorToast,
	})
	return m
}

// Routes returns the module router. Mount it at the site root.
func (m *Module) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(m.browserMiddleware, m.sessionMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	})
	r.Get(LoginPath, wrap(m, m.loginPage))
	r.Group(func(r chi.Router) {
		if m.dispatchLimiter != nil {
			r.Use(ratelimiter.Middleware(m.dispatchLimiter, clientIP, m.logger))
		}
		r.Post(LoginPath, wrap(m, m.submit, binder.Form()))
		r.Post(resendPath, wrap(m, m.resend))
	})
	r.Post(confirmPath, wrap(m, m.confirm, binder.Form()))
	r.Get(LoginPath+"/{provider}", wrap(m, m.beginProvider, binder.Path(chi.URLParam)))
	r.Get(LoginPath+"/{provider}/callback", wrap(m, m.providerCallback, binder.Path(chi.URLParam)))
	r.Post(LogoutPath, wrap(m, m.logout))
	r.Get(EventsPath, wrap(m, m.sessionEvents, binder.Query()))

	r.With(m.requireSession).Get(m.cfg.LandingPath, wrap(m, m.accountPage))
	return r
}

func wrap[R any](m *Module, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}

func (m *Module) continueURL() string {
	return strings.TrimRight(m.cfg.BaseURL, "/") + LoginPath
}

// pageURL rebuilds the absolute URL the browser requested.
func (m *Module) pageURL(r *http.Request) string {
	return strings.TrimRight(m.cfg.BaseURL, "/") + r.URL.RequestURI()
}
