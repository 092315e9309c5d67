package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/clientip"
	"github.com/linkaura/linkaura/pkg/cookie"
	"github.com/linkaura/linkaura/pkg/logger"
	"github.com/linkaura/linkaura/pkg/observer"
)

// browserMiddleware makes sure the browser carries a signed ID cookie.
// A missing or tampered cookie is replaced with a fresh ID.
func (m *Module) browserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.cookies.GetSigned(r, m.cfg.BrowserCookie)
		if err == nil && uuid.Validate(id) != nil {
			err = cookie.ErrInvalidFormat
		}
		if err != nil {
			if !errors.Is(err, cookie.ErrCookieNotFound) {
				m.logger.DebugContext(r.Context(), "replacing browser cookie",
					logger.Component("account"),
					logger.Error(err),
				)
			}
			id = uuid.NewString()
			m.cookies.SetSigned(w, m.cfg.BrowserCookie, id,
				cookie.WithMaxAge(int(m.cfg.BrowserCookieTTL.Seconds())),
				cookie.WithHTTPOnly(true),
			)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), browserIDKey, id)))
	})
}

// sessionMiddleware opens the browser's identity client and observer for
// the lifetime of the request.
func (m *Module) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := m.svc.Client(r.Context(), BrowserID(r.Context()))
		obs := observer.New(client, observer.WithLogger(m.logger))
		defer func() {
			obs.Close()
			if err := client.Close(); err != nil {
				m.logger.WarnContext(r.Context(), "failed to close identity client",
					logger.Component("account"),
					logger.Error(err),
				)
			}
		}()

		ctx := context.WithValue(r.Context(), clientKey, client)
		ctx = context.WithValue(ctx, observerKey, obs)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSession sends signed-out browsers to the sign-in screen.
func (m *Module) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentSession(r.Context()) == nil {
			if err := handler.Redirect(LoginPath).Render(w, r); err != nil {
				m.logger.ErrorContext(r.Context(), "failed to redirect to sign-in", logger.Error(err))
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys the dispatch limiter. Requests without a resolved
// address are not limited.
func clientIP(r *http.Request) string {
	return clientip.FromContext(r.Context())
}
