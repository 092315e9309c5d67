package identity

import "time"

// Config holds the settings of the sign-in service.
type Config struct {
	// BaseURL is the public origin of the site. Sign-in links may only
	// continue to URLs on this origin.
	BaseURL     string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	ProductName string        `env:"APP_NAME" envDefault:"Linkaura"`
	Issuer      string        `env:"SESSION_ISSUER" envDefault:"linkaura"`
	LinkTTL     time.Duration `env:"SIGNIN_LINK_TTL" envDefault:"15m"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	StateTTL    time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`

	// Link dispatch limits, applied per address and per browser.
	DispatchWindow     time.Duration `env:"SIGNIN_LINK_WINDOW" envDefault:"10m"`
	DispatchPerAddress int           `env:"SIGNIN_LINK_PER_ADDRESS" envDefault:"3"`
	DispatchPerBrowser int           `env:"SIGNIN_LINK_PER_BROWSER" envDefault:"10"`
}

// GoogleOAuthConfig configures sign-in with Google. It is disabled when
// ClientID is empty.
type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

func (c GoogleOAuthConfig) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

// GitHubOAuthConfig configures sign-in with GitHub. It is disabled when
// ClientID is empty.
type GitHubOAuthConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"read:user,user:email"`
}

func (c GitHubOAuthConfig) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }
