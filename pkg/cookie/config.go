package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie defaults. Secrets is a comma-separated list of extra
// (rotated) secrets accepted on read; the primary secret is passed to
// NewFromConfig.
type Config struct {
	Secrets  string `env:"COOKIE_SECRETS" envDefault:""`
	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
}

func (c Config) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c Config) rotated() []string {
	var out []string
	for _, s := range strings.Split(c.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewFromConfig creates a Manager that signs with primary and also accepts
// the rotated secrets from cfg.
func NewFromConfig(cfg Config, primary string, opts ...Option) (*Manager, error) {
	base := []Option{
		WithSecure(cfg.Secure),
		WithSameSite(cfg.sameSite()),
	}
	if cfg.Path != "" {
		base = append(base, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		base = append(base, WithDomain(cfg.Domain))
	}
	return New(append([]string{primary}, cfg.rotated()...), append(base, opts...)...)
}
