package errors

import (
	"math"
	"regexp"
	"unicode"
)

// ValidateFinite rejects NaN and infinite values. The name is used in the
// error message so callers can point at the offending field.
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number, got %v", name, v)
	}
	return nil
}

// ValidateVector applies [ValidateFinite] to each component of v.
func ValidateVector(name string, v [3]float64) error {
	for i, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return New(ErrCodeInvalidInput, "%s[%d] must be a finite number, got %v", name, i, c)
		}
	}
	return nil
}

// modelIDRegex matches the canonical textual form of a UUID.
var modelIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateModelID validates a stored model identifier.
// Identifiers end up in file names, so anything but a lowercase UUID is rejected.
func ValidateModelID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "model id cannot be empty")
	}
	if !modelIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid model id: %q", id)
	}
	return nil
}

// ValidateName validates a human-assigned label such as a scene or model name.
//
// The rules are intentionally conservative:
//   - Maximum length of 128 characters
//   - No control characters or null bytes
//
// An empty name is allowed; callers that require one check separately.
func ValidateName(name string) error {
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "name contains invalid control characters")
		}
	}
	return nil
}
