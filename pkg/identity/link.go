package identity

import (
	"net/url"

	"github.com/linkaura/linkaura/pkg/token"
)

// Query parameters that put a continue URL into link mode.
const (
	linkModeParam = "mode"
	linkModeValue = "signIn"
	linkCodeParam = "oobCode"
)

const subjectSignInLink = "magic_link"

type linkPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Subject  string `json:"sub"`
	ExpireAt int64  `json:"exp"`
}

// buildSignInLink appends the link-mode marker and code to continueURL,
// keeping any query it already carries.
func buildSignInLink(continueURL *url.URL, code string) string {
	u := *continueURL
	q := u.Query()
	q.Set(linkModeParam, linkModeValue)
	q.Set(linkCodeParam, code)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// linkCode extracts the code from a link-mode URL.
func linkCode(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	q := u.Query()
	code := q.Get(linkCodeParam)
	if q.Get(linkModeParam) != linkModeValue || code == "" {
		return "", false
	}
	return code, true
}

// isSignInLink reports whether rawURL carries a link-mode code signed with
// secret. It depends on nothing but its arguments.
func isSignInLink(rawURL, secret string) bool {
	code, ok := linkCode(rawURL)
	return ok && token.Valid(code, secret)
}
