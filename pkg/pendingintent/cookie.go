package pendingintent

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/logger"
)

// CookieStore keeps the pending address in an encrypted cookie. It is
// bound to one request; reads after a write in the same request see the
// written value.
type CookieStore struct {
	cookies *cookie.Manager
	w       http.ResponseWriter
	r       *http.Request
	maxAge  time.Duration
	logger  *slog.Logger

	loaded bool
	email  string
	ok     bool
}

func (s *CookieStore) SavePendingEmail(email string) {
	s.loaded, s.email, s.ok = true, email, true
	err := s.cookies.SetEncrypted(s.w, CookieName, email,
		cookie.WithMaxAge(int(s.maxAge.Seconds())),
		cookie.WithHTTPOnly(true),
	)
	if err != nil {
		s.logger.WarnContext(s.r.Context(), "failed to save pending email",
			logger.Component("pendingintent"),
			logger.Error(err),
		)
		s.ok = false
	}
}

func (s *CookieStore) LoadPendingEmail() (string, bool) {
	if !s.loaded {
		s.loaded = true
		v, err := s.cookies.GetEncrypted(s.r, CookieName)
		switch {
		case err == nil && v != "":
			s.email, s.ok = v, true
		case err != nil && !errors.Is(err, cookie.ErrCookieNotFound):
			s.logger.DebugContext(s.r.Context(), "ignoring unreadable pending email cookie",
				logger.Component("pendingintent"),
				logger.Error(err),
			)
		}
	}
	return s.email, s.ok
}

func (s *CookieStore) ClearPendingEmail() {
	s.loaded, s.email, s.ok = true, "", false
	s.cookies.Delete(s.w, CookieName)
}

// CookieFactory opens CookieStores.
type CookieFactory struct {
	cookies *cookie.Manager
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewCookieFactory returns a factory whose cookies live for maxAge.
func NewCookieFactory(cookies *cookie.Manager, maxAge time.Duration, log *slog.Logger) *CookieFactory {
	if log == nil {
		log = logger.Discard()
	}
	return &CookieFactory{cookies: cookies, maxAge: maxAge, logger: log}
}

func (f *CookieFactory) For(w http.ResponseWriter, r *http.Request, _ string) Store {
	return &CookieStore{cookies: f.cookies, w: w, r: r, maxAge: f.maxAge, logger: f.logger}
}
