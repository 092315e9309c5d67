package token_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/token"
)

type testPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
}

const secret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	payload := testPayload{ID: "abc", Email: "alice@example.com", Exp: 1700000000}
	tok, err := token.Generate(payload, secret)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 2)

	got, err := token.Parse[testPayload](tok, secret)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.True(t, token.Valid(tok, secret))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	valid, err := token.Generate(testPayload{ID: "x"}, secret)
	require.NoError(t, err)
	payloadPart, sigPart, _ := strings.Cut(valid, ".")

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"y"}`)) + "." + sigPart

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{"wrong secret", valid, "another-secret-another-secret-xx", token.ErrSignatureInvalid},
		{"forged payload", forged, secret, token.ErrSignatureInvalid},
		{"no separator", payloadPart, secret, token.ErrInvalidToken},
		{"empty signature", payloadPart + ".", secret, token.ErrInvalidToken},
		{"bad base64", "!!!.???", secret, token.ErrInvalidToken},
		{"empty", "", secret, token.ErrInvalidToken},
		{"empty secret", valid, "", token.ErrEmptySecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := token.Parse[testPayload](tt.token, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, token.Valid(tt.token, tt.secret))
		})
	}
}

func TestParse_PayloadTypeMismatch(t *testing.T) {
	t.Parallel()
	tok, err := token.Generate([]int{1, 2, 3}, secret)
	require.NoError(t, err)

	_, err = token.Parse[testPayload](tok, secret)
	assert.ErrorIs(t, err, token.ErrInvalidPayload)
	assert.True(t, token.Valid(tok, secret))
}

func TestGenerate_EmptySecret(t *testing.T) {
	t.Parallel()
	_, err := token.Generate(testPayload{}, "")
	assert.ErrorIs(t, err, token.ErrEmptySecret)
}
