package account

import "time"

// Paths served by the module.
const (
	LoginPath   = "/login"
	LogoutPath  = "/logout"
	EventsPath  = "/session/events"
	confirmPath = LoginPath + "/confirm"
	resendPath  = LoginPath + "/resend"
)

type Config struct {
	// BaseURL is the public origin; sign-in links continue to
	// BaseURL + LoginPath.
	BaseURL     string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	LandingPath string `env:"SIGNIN_LANDING_PATH" envDefault:"/account"`

	BrowserCookie    string        `env:"BROWSER_COOKIE_NAME" envDefault:"lk_browser"`
	BrowserCookieTTL time.Duration `env:"BROWSER_COOKIE_TTL" envDefault:"8760h"`
}
