package users

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
		msg      string
	}{
		{name: "valid", email: "ada@example.com", password: "secret"},
		{name: "malformed email", email: "not-an-email", password: "secret", field: "email", msg: MsgEmailShape},
		{name: "whitespace in email", email: "ada lovelace@example.com", password: "secret", field: "email", msg: MsgEmailShape},
		{name: "two at signs", email: "a@b@example.com", password: "secret", field: "email", msg: MsgEmailShape},
		{name: "blank email", email: "", password: "secret", field: "email", msg: MsgBlank},
		{name: "disposable domain", email: "user@mailinator.com", password: "secret", field: "email", msg: MsgDisposable},
		{name: "disposable domain upper case", email: "user@MailInator.COM", password: "secret", field: "email", msg: MsgDisposable},
		{name: "disposable domain without password", email: "user@yopmail.com", password: "", field: "email", msg: MsgDisposable},
		{name: "blank password", email: "ada@example.com", password: "", field: "password", msg: MsgBlank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.email, tt.password)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.True(t, verr.Has(tt.field, tt.msg), "fields = %v", verr.Fields)
		})
	}
}

func TestValidator_CustomDomains(t *testing.T) {
	v := NewValidator([]string{"Spam.example"})

	assert.True(t, v.IsDisposable("x@spam.example"))
	assert.False(t, v.IsDisposable("x@mailinator.com"))
	assert.NoError(t, v.Validate("x@mailinator.com", "pw"))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{}
	err.add("password", MsgBlank)
	err.add("email", MsgDisposable)

	assert.Equal(t, "validation failed: email cannot be from a disposable email service, password can't be blank", err.Error())
}
