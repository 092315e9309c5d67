package validator

import (
	"errors"
	"strings"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field   string
	Message string
	Code    string
}

// ValidationErrors collects the failures of one Apply call.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve ValidationErrors) Has(field string) bool {
	for _, e := range ve {
		if e.Field == field {
			return true
		}
	}
	return false
}

// First returns the first message recorded for field.
func (ve ValidationErrors) First(field string) string {
	for _, e := range ve {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Map returns the first message per field.
func (ve ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(ve))
	for _, e := range ve {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Rule is a deferred check on one field.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// WithMessage returns r reporting msg instead of its default message.
func (r Rule) WithMessage(msg string) Rule {
	r.Error.Message = msg
	return r
}

// Apply runs rules in order. Once a rule fails for a field the remaining
// rules for that field are skipped, so each field reports its most basic
// problem first.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if errs.Has(r.Error.Field) {
			continue
		}
		if !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Extract returns the ValidationErrors inside err, or nil.
func Extract(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
