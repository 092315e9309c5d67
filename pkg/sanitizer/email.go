package sanitizer

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the address so
// the same mailbox always compares equal.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lowercased domain part, or "" when email has no
// single @.
func EmailDomain(email string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return strings.ToLower(domain)
}
