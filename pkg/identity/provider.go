package identity

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// ProviderProfile is the normalized account information a provider
// reports after a successful consent.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
}

// ProviderAdapter hides one OAuth provider behind the calls the service
// needs.
type ProviderAdapter interface {
	ProviderID() string
	AuthURL(state string) string
	// ResolveProfile exchanges code and fetches the profile. Transport
	// and exchange failures are reported as ErrProviderNetwork.
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}

// ProviderCallback carries the query parameters a provider sends back to
// the callback URL.
type ProviderCallback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// CallbackFromQuery reads a ProviderCallback from callback query values.
func CallbackFromQuery(q url.Values) ProviderCallback {
	return ProviderCallback{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}
}

type providerOptions struct {
	endpoint   *oauth2.Endpoint
	apiBaseURL string
	httpClient *http.Client
}

// ProviderOption customizes a provider adapter.
type ProviderOption func(*providerOptions)

// WithEndpoint replaces the provider's authorization and token URLs.
func WithEndpoint(ep oauth2.Endpoint) ProviderOption {
	return func(o *providerOptions) { o.endpoint = &ep }
}

// WithAPIBaseURL replaces the base URL used for profile requests.
func WithAPIBaseURL(base string) ProviderOption {
	return func(o *providerOptions) { o.apiBaseURL = base }
}

func WithHTTPClient(c *http.Client) ProviderOption {
	return func(o *providerOptions) { o.httpClient = c }
}

func newProviderOptions(defaultEndpoint oauth2.Endpoint, defaultAPI string, opts []ProviderOption) providerOptions {
	o := providerOptions{
		apiBaseURL: defaultAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.endpoint == nil {
		o.endpoint = &defaultEndpoint
	}
	return o
}
