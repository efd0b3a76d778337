package validation

import (
	"encoding/base64"
	"errors"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/passvault/internal/errors"
)

func TestNoWhitespace(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"no whitespace", "example", false},
		{"empty", "", false},
		{"leading space", " example", true},
		{"trailing space", "example ", true},
		{"trailing tab", "example\t", true},
		{"internal space", "my vault", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, NoWhitespace)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"non blank", "Example", false},
		{"only spaces", "   ", true},
		{"only newline", "\n", true},
		{"padded", "  Example  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, NotBlank)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "must not be blank")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDigits(t *testing.T) {
	assert.NoError(t, validation.Validate("0123", Digits))
	assert.Error(t, validation.Validate("12a", Digits))
	assert.Error(t, validation.Validate("-1", Digits))
}

func TestCardNumber(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{"visa test number", "4111111111111111", false},
		{"with spaces", "4111 1111 1111 1111", false},
		{"with dashes", "5555-5555-5555-4444", false},
		{"bad check digit", "4111111111111112", true},
		{"too short", "41111111", true},
		{"letters", "4111a11111111111", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, CardNumber)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPURL(t *testing.T) {
	assert.NoError(t, validation.Validate("https://example.com/login", HTTPURL))
	assert.NoError(t, validation.Validate("http://localhost:8080", HTTPURL))
	assert.Error(t, validation.Validate("ftp://example.com", HTTPURL))
	assert.Error(t, validation.Validate("example.com", HTTPURL))
	assert.Error(t, validation.Validate("https://", HTTPURL))
}

func TestBase64Key(t *testing.T) {
	rule := Base64Key(32)

	assert.NoError(t, validation.Validate(base64.StdEncoding.EncodeToString(make([]byte, 32)), rule))
	assert.NoError(t, validation.Validate("", rule))
	assert.Error(t, validation.Validate(base64.StdEncoding.EncodeToString(make([]byte, 16)), rule))
	assert.Error(t, validation.Validate("not base64!", rule))
}

func TestWrapValidationError(t *testing.T) {
	t.Run("wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(errors.New("name: cannot be blank."))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "name: cannot be blank.")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})
}
