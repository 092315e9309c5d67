// Package secrets derives purpose-bound keys from one application secret
// with HKDF (golang.org/x/crypto/hkdf), so sign-in link tokens, session
// tokens, and cookies never share key material.
package secrets
