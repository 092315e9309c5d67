package signin

import "errors"

var (
	ErrClosed       = errors.New("signin: controller is closed")
	ErrInvalidState = errors.New("signin: action not allowed in current state")
)
