// Package validation provides custom validation rules for the application.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// identifierRegex matches record ids and collection names usable as path segments
	identifierRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-.]{0,127}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Digits validates that a string holds only decimal digits.
var Digits = validation.NewStringRuleWithError(
	func(s string) bool {
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_digits", "must contain only digits"),
)

// Identifier validates record ids and collection names.
var Identifier = validation.NewStringRuleWithError(
	identifierRegex.MatchString,
	validation.NewError("validation_identifier", "must be an identifier (letters, digits, '-', '_', '.')"),
)

// MinRunes validates that a trimmed string has at least n characters.
func MinRunes(n int) validation.Rule {
	return validation.NewStringRuleWithError(
		func(s string) bool {
			return utf8.RuneCountInString(strings.TrimSpace(s)) >= n
		},
		validation.NewError("validation_min_runes", fmt.Sprintf("must have at least %d characters", n)),
	)
}

// NonNegativeDecimal validates that a decimal.Decimal is >= 0.
var NonNegativeDecimal = validation.By(func(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_decimal_type", "must be a decimal")
	}
	if d.IsNegative() {
		return validation.NewError("validation_decimal_negative", "must not be negative")
	}
	return nil
})

// PositiveDecimal validates that a decimal.Decimal is > 0.
var PositiveDecimal = validation.By(func(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return validation.NewError("validation_decimal_type", "must be a decimal")
	}
	if !d.IsPositive() {
		return validation.NewError("validation_decimal_positive", "must be greater than zero")
	}
	return nil
})
