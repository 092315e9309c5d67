package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minCredentialSecret = 32

type sessionClaims struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Credentials issues and verifies the HS256 tokens that back a Session.
type Credentials struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewCredentials returns a credential issuer. secret must be at least 32
// bytes long.
func NewCredentials(secret []byte, issuer string, ttl time.Duration) (*Credentials, error) {
	if len(secret) < minCredentialSecret {
		return nil, fmt.Errorf("%w: session secret must be at least %d bytes", ErrInvalidConfig, minCredentialSecret)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: session ttl must be positive", ErrInvalidConfig)
	}
	return &Credentials{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued sessions.
func (c *Credentials) TTL() time.Duration {
	return c.ttl
}

// Issue creates a new Session for acc signed in through provider.
func (c *Credentials) Issue(acc *Account, provider string) (*Session, error) {
	now := c.now().UTC().Truncate(time.Second)
	sess := &Session{
		ID:          uuid.NewString(),
		AccountID:   acc.ID,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
		Provider:    provider,
		CreatedAt:   now,
		ExpiresAt:   now.Add(c.ttl),
	}

	claims := sessionClaims{
		Email:    sess.Email,
		Name:     sess.DisplayName,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   acc.ID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	sess.Token = signed
	return sess, nil
}

// Parse verifies raw and rebuilds the Session it encodes. Expired,
// tampered and foreign tokens fail with ErrInvalidCredential.
func (c *Credentials) Parse(raw string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}

	sess := &Session{
		ID:          claims.ID,
		AccountID:   accountID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Provider:    claims.Provider,
		Token:       raw,
	}
	if claims.IssuedAt != nil {
		sess.CreatedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return sess, nil
}
