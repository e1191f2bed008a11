package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreachable marks catalog connectivity or authentication failures.
	// It is fatal to the scan operation that observed it.
	ErrUnreachable = errors.New("catalog unreachable")
	// ErrValidation marks malformed or out-of-range caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup that produced no result.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures that are isolated to one row or one scene
	// and safe to retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort the surrounding scan rather
// than be recovered inline.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
