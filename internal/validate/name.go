package validate

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxNameLength is the longest category or item name accepted, in characters.
const MaxNameLength = 50

// ErrInvalidName is returned by [Name] for any rejected name.
// The wrapped message says which rule failed.
var ErrInvalidName = errors.New("invalid name")

// Name checks a category or item name.
//
// Rules are applied in order: the name must be non-empty, at most
// [MaxNameLength] characters, and contain only ASCII letters, digits,
// spaces, hyphens, underscores and periods.
func Name(name string) error {
	if name == "" {
		return fmt.Errorf("%w: Name cannot be empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: Name exceeds maximum length of %d characters", ErrInvalidName, MaxNameLength)
	}
	for _, r := range name {
		if !allowedNameRune(r) {
			return fmt.Errorf("%w: Name contains invalid characters. Allowed: letters, numbers, spaces, hyphens, underscores, and periods", ErrInvalidName)
		}
	}
	return nil
}

func allowedNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-', r == '_', r == '.':
		return true
	default:
		return false
	}
}
