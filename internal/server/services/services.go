// Package services contains server-side business logic. Every operation
// takes the acting identity explicitly, authorizes it through the access
// evaluator and appends an audit event after a successful write.
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/dmitrijs2005/babypal/internal/common"
)

var categories = []error{
	common.ErrorNotFound,
	common.ErrorConflict,
	common.ErrorUnauthorized,
	common.ErrorForbidden,
	common.ErrorValidation,
	common.ErrorInternal,
}

// classify passes nil and categorized errors through and turns everything
// else into ErrorInternal.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range categories {
		if errors.Is(err, c) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}

// notFoundAs replaces a bare ErrorNotFound with one naming what is missing.
func notFoundAs(err error, what string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NotFound(what)
	}
	return classify(err)
}

// signUpExpiry is the account and credentials expiry given to new users.
var signUpExpiry = time.Date(2125, 12, 31, 0, 0, 0, 0, time.UTC)

func validateUsername(username string) error {
	if n := len(username); n < 3 || n > 20 {
		return common.Validation("Username must be between 3 and 20 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if n := len(password); n < 6 || n > 40 {
		return common.Validation("Password must be between 6 and 40 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return common.Validation("Email cannot be empty")
	}
	if len(email) > 50 {
		return common.Validation("Email must be at most 50 characters")
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return common.Validation("Invalid email format")
	}
	return nil
}
