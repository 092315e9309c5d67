package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type githubAdapter struct {
	conf       *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubAdapter returns the GitHub provider adapter.
func NewGitHubAdapter(cfg GitHubOAuthConfig, opts ...ProviderOption) ProviderAdapter {
	o := newProviderOptions(github.Endpoint, "https://api.github.com", opts)
	return &githubAdapter{
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

func (a *githubAdapter) ProviderID() string { return ProviderGitHub }

func (a *githubAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

// ResolveProfile reads the account from /user and the address from
// /user/emails, preferring the primary verified one.
func (a *githubAdapter) ResolveProfile(ctx context.Context, code string) (ProviderProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, errors.Join(ErrProviderNetwork, fmt.Errorf("github token exchange: %w", err))
	}

	var u struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/user", tok.AccessToken, &u); err != nil {
		return ProviderProfile{}, errors.Join(ErrProviderNetwork, fmt.Errorf("fetch github user: %w", err))
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, a.httpClient, a.apiBaseURL+"/user/emails", tok.AccessToken, &emails); err != nil {
		return ProviderProfile{}, errors.Join(ErrProviderNetwork, fmt.Errorf("fetch github emails: %w", err))
	}

	profile := ProviderProfile{ProviderUserID: strconv.FormatInt(u.ID, 10), Name: u.Name}
	if profile.Name == "" {
		profile.Name = u.Login
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			profile.Email, profile.EmailVerified = e.Email, true
			break
		}
	}
	if profile.Email == "" {
		for _, e := range emails {
			if e.Verified {
				profile.Email, profile.EmailVerified = e.Email, true
				break
			}
		}
	}
	if profile.Email == "" {
		return ProviderProfile{}, ErrUnverifiedProviderEmail
	}
	return profile, nil
}

var _ ProviderAdapter = (*githubAdapter)(nil)
