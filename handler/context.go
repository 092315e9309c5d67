package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

// Context is the request context handed to a HandlerFunc.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// SSE is nil unless the request came from Datastar. The first call
	// opens the stream and writes the response headers, so set cookies
	// before calling it.
	SSE() *datastar.ServerSentEventGenerator
}

// NewContext creates the default Context.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &httpContext{w: w, r: r}
}

type httpContext struct {
	w       http.ResponseWriter
	r       *http.Request
	sseOnce sync.Once
	sse     *datastar.ServerSentEventGenerator
}

func (c *httpContext) Request() *http.Request { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }

func (c *httpContext) SSE() *datastar.ServerSentEventGenerator {
	c.sseOnce.Do(func() {
		if IsDataStar(c.r) {
			c.sse = NewSSE(c.w, c.r)
		}
	})
	return c.sse
}

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{} { return c.r.Context().Done() }
func (c *httpContext) Err() error { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any { return c.r.Context().Value(key) }

// ContextKey is a collision-free context key.
type ContextKey struct{ name string }

func (c *ContextKey) String() string { return c.name }

// NewContextKey returns a key; keep it in a package-level variable.
func NewContextKey(name string) *ContextKey {
	return &ContextKey{name}
}

// ContextValue returns the value for key as T, or the zero value.
func ContextValue[T any](ctx context.Context, key any) T {
	val, _ := ctx.Value(key).(T)
	return val
}

// ContextValueOK is ContextValue that also reports presence.
func ContextValueOK[T any](ctx context.Context, key any) (T, bool) {
	val, ok := ctx.Value(key).(T)
	return val, ok
}
