package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestCredentials_IssueParse(t *testing.T) {
	t.Parallel()

	creds, err := NewCredentials(testSecret, "linkaura", time.Hour)
	require.NoError(t, err)

	acc := &Account{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice"}
	sess, err := creds.Issue(acc, ProviderEmailLink)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	parsed, err := creds.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, parsed.ID)
	assert.Equal(t, acc.ID, parsed.AccountID)
	assert.Equal(t, "alice@example.com", parsed.Email)
	assert.Equal(t, "Alice", parsed.DisplayName)
	assert.Equal(t, ProviderEmailLink, parsed.Provider)
	assert.True(t, sess.ExpiresAt.Equal(parsed.ExpiresAt))
	assert.True(t, sess.CreatedAt.Equal(parsed.CreatedAt))
}

func TestCredentials_Rejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	creds, err := NewCredentials(testSecret, "linkaura", time.Hour)
	require.NoError(t, err)
	creds.now = func() time.Time { return now }

	sess, err := creds.Issue(&Account{ID: uuid.New(), Email: "a@b.co"}, ProviderGoogle)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later, err := NewCredentials(testSecret, "linkaura", time.Hour)
		require.NoError(t, err)
		later.now = func() time.Time { return now.Add(2 * time.Hour) }
		_, err = later.Parse(sess.Token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewCredentials([]byte(strings.Repeat("z", 32)), "linkaura", time.Hour)
		require.NoError(t, err)
		other.now = creds.now
		_, err = other.Parse(sess.Token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := NewCredentials(testSecret, "someone-else", time.Hour)
		require.NoError(t, err)
		other.now = creds.now
		_, err = other.Parse(sess.Token)
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := creds.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestNewCredentials_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewCredentials([]byte("short"), "linkaura", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewCredentials(testSecret, "linkaura", 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
