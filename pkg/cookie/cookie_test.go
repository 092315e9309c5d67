package cookie_test

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/cookie"
)

var (
	secretA = strings.Repeat("a", 32)
	secretB = strings.Repeat("b", 32)
)

// roundTrip copies Set-Cookie headers from rec into a new request.
func roundTrip(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			r.AddCookie(c)
		}
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"", ""})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)

	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestManager_Plain(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Set(rec, "theme", "dark", cookie.WithMaxAge(60))
	c := rec.Result().Cookies()[0]
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 60, c.MaxAge)

	v, err := m.Get(roundTrip(rec), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	_, err = m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "theme")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestManager_Signed(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetSigned(rec, "bid", "browser-1")

	v, err := m.GetSigned(roundTrip(rec), "bid")
	require.NoError(t, err)
	assert.Equal(t, "browser-1", v)

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		signed := m.Sign("browser-1")
		_, sig, _ := strings.Cut(signed, "|")
		forged := base64.RawURLEncoding.EncodeToString([]byte("browser-2")) + "|" + sig
		require.NotEqual(t, signed, forged)
		_, err := m.Verify(forged)
		assert.Error(t, err)
	})

	t.Run("no separator", func(t *testing.T) {
		t.Parallel()
		_, err := m.Verify("garbage")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("other secret", func(t *testing.T) {
		t.Parallel()
		other, err := cookie.New([]string{secretB})
		require.NoError(t, err)
		_, err = other.Verify(m.Sign("x"))
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestManager_Rotation(t *testing.T) {
	t.Parallel()
	old, err := cookie.New([]string{secretA})
	require.NoError(t, err)
	rotated, err := cookie.New([]string{secretB, secretA})
	require.NoError(t, err)

	v, err := rotated.Verify(old.Sign("keep-me"))
	require.NoError(t, err)
	assert.Equal(t, "keep-me", v)

	rec := httptest.NewRecorder()
	require.NoError(t, old.SetEncrypted(rec, "enc", "secret"))
	plain, err := rotated.GetEncrypted(roundTrip(rec), "enc")
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}

func TestManager_Encrypted(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetEncrypted(rec, "email", "alice@example.com"))
	raw := rec.Result().Cookies()[0].Value
	assert.NotContains(t, raw, "alice")

	v, err := m.GetEncrypted(roundTrip(rec), "email")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", v)

	other, err := cookie.New([]string{secretB})
	require.NoError(t, err)
	_, err = other.GetEncrypted(roundTrip(rec), "email")
	assert.ErrorIs(t, err, cookie.ErrDecryptionFailed)
}

func TestManager_Flash(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secretA})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(rec, "notice", map[string]string{"text": "sent"}))

	out := httptest.NewRecorder()
	var got map[string]string
	require.NoError(t, m.GetFlash(out, roundTrip(rec), "notice", &got))
	assert.Equal(t, "sent", got["text"])

	deleted := out.Result().Cookies()
	require.Len(t, deleted, 1)
	assert.Equal(t, -1, deleted[0].MaxAge)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	m, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  " " + secretB + " ,",
		Path:     "/app",
		Secure:   true,
		SameSite: "strict",
	}, secretA)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Set(rec, "x", "y")
	c := rec.Result().Cookies()[0]
	assert.Equal(t, "/app", c.Path)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	old, err := cookie.New([]string{secretB})
	require.NoError(t, err)
	_, err = m.Verify(old.Sign("v"))
	assert.NoError(t, err)
}
