// Package requestid assigns each HTTP request an ID, exposes it through
// the context, and feeds it to the logger.
package requestid
