// Package cookie manages HTTP cookies with HMAC signing, AES-GCM
// encryption, one-shot flash values, and secret rotation.
package cookie
