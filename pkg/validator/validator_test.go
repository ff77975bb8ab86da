package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Gender   string `json:"gender" validate:"gender"`
}

func newValidate(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, Register(v, map[string][]string{
		"gender": {"male", "female", "other"},
	}))
	return v
}

func TestEnumTag(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Struct(signup{Email: "a@b.co", Password: "secret1", Gender: "female"}))
	assert.NoError(t, v.Struct(signup{Email: "a@b.co", Password: "secret1"}))
	assert.Error(t, v.Struct(signup{Email: "a@b.co", Password: "secret1", Gender: "robot"}))
}

func TestDescribeUsesJSONNames(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(signup{Email: "nope", Password: "abc", Gender: "robot"})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "email must be a valid email")
	assert.Contains(t, msg, "password must be at least 6 characters")
	assert.Contains(t, msg, "gender is invalid")
}

func TestDescribeNonValidationError(t *testing.T) {
	assert.Equal(t, "Invalid request body", Describe(assert.AnError))
}
