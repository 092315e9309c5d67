package account

import (
	"context"

	"github.com/linkaura/linkaura/handler"
	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/observer"
)

var (
	browserIDKey = handler.NewContextKey("browser_id")
	clientKey    = handler.NewContextKey("identity_client")
	observerKey  = handler.NewContextKey("session_observer")
)

// BrowserID returns the ID of the browser making the request.
func BrowserID(ctx context.Context) string {
	return handler.ContextValue[string](ctx, browserIDKey)
}

// SessionObserver returns the request's session observer, or nil outside
// the module's routes.
func SessionObserver(ctx context.Context) *observer.Observer {
	return handler.ContextValue[*observer.Observer](ctx, observerKey)
}

// CurrentSession returns the browser's session, or nil when signed out.
func CurrentSession(ctx context.Context) *identity.Session {
	if obs := SessionObserver(ctx); obs != nil {
		return obs.Current()
	}
	return nil
}

func identityClient(ctx context.Context) *identity.Client {
	return handler.ContextValue[*identity.Client](ctx, clientKey)
}
