package validation

import (
	"fmt"
	"unicode/utf8"

	dErrors "profilegate/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed webhook body size (64 KB).
	// An identity context with metadata fits comfortably below this.
	MaxBodySize = 64 * 1024
)

// Element count limits
const (
	// MaxSubmittedFields is the maximum number of keys read from a form submission.
	MaxSubmittedFields = 32

	// MaxOverlayPolicies is the maximum number of policies an overlay file may declare.
	MaxOverlayPolicies = 200
)

// String element length limits
const (
	// MaxFieldLength is the maximum length, in characters, of a persisted profile field.
	// The same limit applies when validating and when sanitising for persistence.
	MaxFieldLength = 100

	// MaxConfigKeyLength is the maximum length of a policy, bundle or form key.
	MaxConfigKeyLength = 128

	// MaxUserIDLength is the maximum length of a platform user identifier.
	MaxUserIDLength = 255
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
// Length is counted in characters so multi-byte names are not penalised.
func CheckStringLength(fieldName, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// Truncate cuts value to at most max characters.
func Truncate(value string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max])
}
