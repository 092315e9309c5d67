// Package redis connects to Redis with github.com/redis/go-redis/v9 and
// exposes a health probe. Stores built on the client live with their
// owning packages.
package redis
