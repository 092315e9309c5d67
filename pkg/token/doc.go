// Package token provides compact signed tokens that carry a JSON payload.
//
// Format: base64url(payload).base64url(HMAC-SHA256(payload)).
//
//	type linkPayload struct {
//		ID  string `json:"id"`
//		Exp int64  `json:"exp"`
//	}
//
//	tok, err := token.Generate(linkPayload{ID: id, Exp: exp}, secret)
//	p, err := token.Parse[linkPayload](tok, secret)
//
// Expiry and single use are the caller's concern; the token only proves
// the payload was issued with secret.
package token
