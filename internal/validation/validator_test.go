package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Register(t *testing.T) {
	v := New()

	err := v.Validate(RegisterForm{Username: "ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	err = v.Validate(RegisterForm{Username: "an", Email: "nope", Password: "123", ConfirmPassword: "456"})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at least 3 characters", verr.Fields["username"])
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])
	assert.Equal(t, "must be at least 6 characters", verr.Fields["password"])
	assert.Equal(t, "does not match", verr.Fields["confirm_password"])
}

func TestValidate_Comment(t *testing.T) {
	v := New()
	f := CommentForm{ItemID: 1, Content: "   "}
	f.Normalize()

	err := v.Validate(f)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["content"])
}

func TestValidate_RatingRange(t *testing.T) {
	v := New()
	err := v.Validate(RatingForm{ItemID: 1, Versatility: 11})
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must not exceed 10", verr.Fields["versatility"])
}

func TestError_Message(t *testing.T) {
	err := &Error{Fields: map[string]string{"b": "is required", "a": "is invalid"}}
	assert.Equal(t, "invalid input: a is invalid; b is required", err.Error())
}
