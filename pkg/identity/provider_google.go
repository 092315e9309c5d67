package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type googleAdapter struct {
	conf       *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGoogleAdapter returns the Google provider adapter.
func NewGoogleAdapter(cfg GoogleOAuthConfig, opts ...ProviderOption) ProviderAdapter {
	o := newProviderOptions(google.Endpoint, "https://www.googleapis.com", opts)
	return &googleAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     *o.endpoint,
		},
		apiBaseURL: o.apiBaseURL,
		httpClient: o.httpClient,
	}
}

func (a *googleAdapter) ProviderID() string { return ProviderGoogle }

func (a *googleAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

func (a *googleAdapter) ResolveProfile(ctx context.Context, code string) (ProviderProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, errors.Join(ErrProviderNetwork, fmt.Errorf("google token exchange: %w", err))
	}

	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/oauth2/v2/userinfo", tok.AccessToken, &u); err != nil {
		return ProviderProfile{}, errors.Join(ErrProviderNetwork, fmt.Errorf("fetch google user: %w", err))
	}
	if u.ID == "" {
		return ProviderProfile{}, fmt.Errorf("%w: google profile has no id", ErrProviderNetwork)
	}

	return ProviderProfile{
		ProviderUserID: u.ID,
		Email:          u.Email,
		EmailVerified:  u.VerifiedEmail,
		Name:           u.Name,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url, accessToken string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

var _ ProviderAdapter = (*googleAdapter)(nil)
