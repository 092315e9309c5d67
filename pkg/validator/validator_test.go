package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/validator"
)

func TestApply_StopsAtFirstFailurePerField(t *testing.T) {
	t.Parallel()

	err := validator.Apply(
		validator.RequiredString("email", "").WithMessage("Email is required"),
		validator.ValidEmail("email", "").WithMessage("Please enter a valid email"),
		validator.RequiredString("name", ""),
	)
	require.Error(t, err)

	ve := validator.Extract(err)
	require.Len(t, ve, 2)
	assert.Equal(t, "Email is required", ve.First("email"))
	assert.Equal(t, "field is required", ve.First("name"))
	assert.Equal(t, map[string]string{"email": "Email is required", "name": "field is required"}, ve.Map())
	assert.Contains(t, err.Error(), "email: Email is required")
}

func TestApply_Passes(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validator.Apply(
		validator.RequiredString("email", "alice@example.com"),
		validator.ValidEmail("email", "alice@example.com"),
		validator.MaxLen("email", "alice@example.com", 254),
	))
}

func TestValidEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.co", true},
		{"alice@example", false},
		{"alice@.com", false},
		{"alice@example.", false},
		{"@example.com", false},
		{"alice example@example.com", false},
		{"alice@@example.com", false},
		{"Alice <alice@example.com>", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, validator.Apply(validator.ValidEmail("email", tt.in)) == nil)
		})
	}
}

func TestEmailShape(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validator.Apply(validator.EmailShape("e", "x@y.z")))
	assert.Error(t, validator.Apply(validator.EmailShape("e", "x@y")))
}

func TestExtract(t *testing.T) {
	t.Parallel()
	assert.Nil(t, validator.Extract(nil))
	assert.Nil(t, validator.Extract(errors.New("other")))

	wrapped := fmt.Errorf("submit: %w", validator.Apply(validator.RequiredString("email", " ")))
	assert.True(t, validator.IsValidationError(wrapped))
	assert.True(t, validator.Extract(wrapped).Has("email"))
}
