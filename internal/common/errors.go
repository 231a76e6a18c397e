// Package common defines sentinel errors and small helpers shared by the
// server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level categories. The HTTP layer maps each one to a status code.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Account state.
	ErrAccountDisabled    = fmt.Errorf("%w: User account is disabled", ErrorUnauthorized)
	ErrAccountLocked      = fmt.Errorf("%w: User account is locked", ErrorUnauthorized)
	ErrAccountExpired     = fmt.Errorf("%w: User account has expired", ErrorUnauthorized)
	ErrCredentialsExpired = fmt.Errorf("%w: User credentials have expired", ErrorUnauthorized)
	ErrBadCredentials     = fmt.Errorf("%w: Bad credentials", ErrorUnauthorized)

	// Token lifecycle errors.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrorUnauthorized)
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrorUnauthorized)
	ErrTokenRevoked = fmt.Errorf("%w: token revoked", ErrorUnauthorized)

	// Password reset.
	ErrResetTokenUsed    = fmt.Errorf("%w: This token has already been used.", ErrorValidation)
	ErrResetTokenExpired = fmt.Errorf("%w: Password reset token has expired", ErrorValidation)

	// Two-factor authentication.
	ErrInvalid2FACode = fmt.Errorf("%w: Invalid 2FA Code", ErrorUnauthorized)
	Err2FANotEnrolled = fmt.Errorf("%w: two-factor authentication is not set up", ErrorValidation)
)

// Validation returns an ErrorValidation carrying msg.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrorValidation, msg)
}

// Conflict returns an ErrorConflict carrying msg.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrorConflict, msg)
}

// Forbidden returns an ErrorForbidden carrying the reason for the denial.
func Forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrorForbidden, reason)
}

// NotFound returns an ErrorNotFound naming the missing subject.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrorNotFound, what)
}

// Message strips the category prefix from err, leaving the text meant for
// API clients. Errors outside the known categories yield the generic text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, c := range []error{ErrorNotFound, ErrorConflict, ErrorUnauthorized, ErrorForbidden, ErrorValidation} {
		if errors.Is(err, c) {
			prefix := c.Error() + ": "
			if i := strings.LastIndex(msg, prefix); i >= 0 {
				return msg[i+len(prefix):]
			}
			return msg
		}
	}
	return ErrorInternal.Error()
}
