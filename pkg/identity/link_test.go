package identity

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/token"
)

const testLinkSecret = "link-secret-for-tests-0123456789"

func TestBuildSignInLink(t *testing.T) {
	t.Parallel()

	cont, err := url.Parse("https://linkaura.test/login?next=%2Faccount#top")
	require.NoError(t, err)

	link := buildSignInLink(cont, "abc.def")
	u, err := url.Parse(link)
	require.NoError(t, err)

	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "/account", u.Query().Get("next"))
	assert.Equal(t, "signIn", u.Query().Get("mode"))
	assert.Equal(t, "abc.def", u.Query().Get("oobCode"))
	assert.Empty(t, u.Fragment)
	assert.Equal(t, "https://linkaura.test/login?next=%2Faccount#top", cont.String(), "continue url must not be modified")
}

func TestIsSignInLink_Pure(t *testing.T) {
	t.Parallel()

	code, err := token.Generate(linkPayload{ID: "1", Email: "alice@example.com", Subject: subjectSignInLink, ExpireAt: 1}, testLinkSecret)
	require.NoError(t, err)
	cont, _ := url.Parse("https://linkaura.test/login")
	link := buildSignInLink(cont, code)

	forged, err := token.Generate(linkPayload{ID: "1"}, "another-secret")
	require.NoError(t, err)

	cases := []struct {
		raw  string
		want bool
	}{
		{link, true},
		{"https://linkaura.test/login", false},
		{"https://linkaura.test/login?mode=signIn", false},
		{"https://linkaura.test/login?oobCode=" + url.QueryEscape(code), false},
		{"https://linkaura.test/login?mode=signIn&oobCode=" + url.QueryEscape(forged), false},
		{"https://linkaura.test/login?mode=resetPassword&oobCode=" + url.QueryEscape(code), false},
		{"%%%", false},
	}

	// Results never depend on call count or order; expired links still
	// look like links.
	for range 3 {
		for _, tc := range cases {
			assert.Equal(t, tc.want, isSignInLink(tc.raw, testLinkSecret), tc.raw)
		}
	}
}

func TestHumanDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "15 minutes", humanDuration(15*time.Minute))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "1 minute", humanDuration(90*time.Second))
}
