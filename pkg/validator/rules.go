package validator

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required", Code: "required"},
	}
}

func MaxLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= n },
		Error: ValidationError{Field: field, Message: "value is too long", Code: "max_len"},
	}
}

// EmailShape accepts anything shaped like local@domain.tld: no whitespace,
// a single @, and a dot in the domain with characters on both sides.
func EmailShape(field, value string) Rule {
	return Rule{
		Check: func() bool { return hasEmailShape(value) },
		Error: ValidationError{Field: field, Message: "invalid email address", Code: "email"},
	}
}

// ValidEmail is EmailShape plus RFC 5322 parsing of the bare address.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if !hasEmailShape(value) {
				return false
			}
			addr, err := mail.ParseAddress(value)
			return err == nil && addr.Address == value
		},
		Error: ValidationError{Field: field, Message: "invalid email address", Code: "email"},
	}
}

func hasEmailShape(value string) bool {
	if value == "" || strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return false
	}
	local, domain, ok := strings.Cut(value, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	dot := strings.LastIndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
