package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sign-in methods a Session can originate from.
const (
	ProviderEmailLink = "email_link"
	ProviderGoogle    = "google"
	ProviderGitHub    = "github"
)

// Session is the authenticated state of one browser. Token is the signed
// credential it was decoded from; everything else is derived from it.
type Session struct {
	ID          string    `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Provider    string    `json:"provider"`
	Token       string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// Name is what the navigation shows for the signed-in account.
func (s *Session) Name() string {
	if s == nil {
		return ""
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	if local, _, ok := strings.Cut(s.Email, "@"); ok {
		return local
	}
	return s.Email
}

// Clone returns a copy safe to hand to another goroutine. Nil stays nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
