package progressive

import (
	"fmt"
	"strings"
	"unicode"

	"profilegate/pkg/platform/validation"
)

// unsafeChars are rejected anywhere in a submitted text value because the
// rendering collaborator interpolates profile values into markup and templates.
const unsafeChars = "<>{}\\"

// ContainsUnsafe reports whether s holds markup/template characters or
// control characters.
func ContainsUnsafe(s string) bool {
	if strings.ContainsAny(s, unsafeChars) {
		return true
	}
	return strings.ContainsFunc(s, unicode.IsControl)
}

// ValidateText checks one submitted text value. label is the human name used
// in the denial message ("First name").
func ValidateText(label, value string, required bool) error {
	v := strings.TrimSpace(value)
	if v == "" {
		if required {
			return fieldDenial(fmt.Sprintf("%s is required.", label))
		}
		return nil
	}
	if ContainsUnsafe(v) {
		return fieldDenial(fmt.Sprintf("%s contains invalid characters.", label))
	}
	if err := validation.CheckStringLength(label, v, validation.MaxFieldLength); err != nil {
		return fieldDenial(fmt.Sprintf("%s must be at most %d characters.", label, validation.MaxFieldLength))
	}
	return nil
}

// SanitizeText trims and truncates an already validated value for persistence.
func SanitizeText(value string) string {
	return validation.Truncate(strings.TrimSpace(value), validation.MaxFieldLength)
}

// IsTruthy interprets a boolean-like form value: boolean true or one of the
// literal strings "true", "yes", "1". Everything else is false.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.TrimSpace(t) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}
