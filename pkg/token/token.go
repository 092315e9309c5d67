package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const separator = "."

// Generate encodes payload as JSON and appends an HMAC-SHA256 signature:
// base64url(payload) "." base64url(signature).
func Generate[T any](payload T, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrInvalidPayload, err)
	}
	return base64.RawURLEncoding.EncodeToString(data) + separator +
		base64.RawURLEncoding.EncodeToString(sign(data, secret)), nil
}

// Parse verifies the signature and decodes the payload into T.
func Parse[T any](token, secret string) (T, error) {
	var payload T

	data, err := verify(token, secret)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidPayload, err)
	}
	return payload, nil
}

// Valid reports whether token is well formed and signed with secret.
// It does not decode the payload.
func Valid(token, secret string) bool {
	_, err := verify(token, secret)
	return err == nil
}

func verify(token, secret string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	payloadPart, sigPart, ok := strings.Cut(token, separator)
	if !ok || payloadPart == "" || sigPart == "" {
		return nil, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !hmac.Equal(sig, sign(data, secret)) {
		return nil, ErrSignatureInvalid
	}
	return data, nil
}

func sign(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)
}
