package database

import (
	"fmt"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// WrapError marks a driver error as a persistence failure. The result matches
// both ErrUnavailable and the original error.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, apperrors.ErrUnavailable, err)
}
