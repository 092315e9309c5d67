// Package ratelimiter limits events per key, either in memory with
// golang.org/x/time/rate token buckets or across processes with a Redis
// fixed-window counter. Middleware applies a limiter to HTTP routes.
package ratelimiter
