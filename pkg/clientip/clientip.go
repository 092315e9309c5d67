package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/linkaura/linkaura/pkg/logger"
)

type Config struct {
	// TrustedHeaders lists proxy headers carrying the client address,
	// most trusted first.
	TrustedHeaders []string `env:"CLIENT_IP_HEADERS" envSeparator:","`
}

// Resolver finds client addresses according to a Config.
type Resolver struct {
	headers []string
}

func New(cfg Config) *Resolver {
	headers := make([]string, 0, len(cfg.TrustedHeaders))
	for _, h := range cfg.TrustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: headers}
}

// Resolve returns the normalized client address, or "" when none is
// valid.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		// X-Forwarded-For and friends carry a list; the first entry is the
		// client.
		for v := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := normalize(v); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return normalize(host)
}

// Middleware stores the client address in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.Resolve(r))))
	})
}

func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type ctxKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

// FromContext returns the address stored by Middleware, or "".
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// LoggerExtractor adds client_ip to records logged with a request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if ip := FromContext(ctx); ip != "" {
			return slog.String("client_ip", ip), true
		}
		return slog.Attr{}, false
	}
}
