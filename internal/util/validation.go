package util

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/tailorly/tailor-server-go/internal/errors"
)

// ValidateTextField trims the value and checks it against character length
// bounds. Validation happens before any credit deduction, so a rejected
// payload never has billing side effects.
func ValidateTextField(field, value string, min, max int) (string, error) {
	trimmed := strings.TrimSpace(value)
	length := utf8.RuneCountInString(trimmed)
	if length < min {
		if length == 0 {
			return "", apperrors.MissingRequired(field)
		}
		return "", apperrors.InvalidInput(field, fmt.Sprintf("must be at least %d characters", min))
	}
	if length > max {
		return "", apperrors.InvalidInput(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return trimmed, nil
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
