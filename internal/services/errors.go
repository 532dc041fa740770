package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying pipeline failures. Dependency, unknown-item,
// and IO errors are fatal to the operation that raised them; process,
// timeout, and plugin errors are logged and the batch continues.
var (
	ErrMissingDependency = errors.New("missing dependency")
	ErrUnknownItem       = errors.New("unknown item")
	ErrIO                = errors.New("io error")
	ErrProcess           = errors.New("process error")
	ErrTimeout           = errors.New("process timeout")
	ErrInvalidPlugin     = errors.New("invalid plugin")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProcess
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error should abort the run rather than degrade it.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrMissingDependency), errors.Is(err, ErrUnknownItem), errors.Is(err, ErrIO):
		return true
	default:
		return false
	}
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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
