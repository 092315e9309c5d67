package token

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrInvalidPayload   = errors.New("invalid token payload")
	ErrEmptySecret      = errors.New("token secret must not be empty")
)
