package redis

import "errors"

var (
	ErrInvalidURL        = errors.New("redis: invalid connection url")
	ErrEmptyURL          = errors.New("redis: connection url is empty")
	ErrNotReady          = errors.New("redis: not ready after retries")
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
