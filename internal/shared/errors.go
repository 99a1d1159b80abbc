package shared

import (
	"context"
	"errors"
	"fmt"
)

// Common errors that can be used across the application
var (
	// ErrValidation indicates that user input (a crontab line, a flag, a time window) is invalid
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrDependencyFailure indicates that an external collaborator (filesystem, command) failed
	ErrDependencyFailure = errors.New("dependency failure")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindValidation represents input validation errors
	KindValidation
	// KindNotFound represents resource not found errors
	KindNotFound
	// KindDependencyFailure represents external dependency failures
	KindDependencyFailure
	// KindInternal represents internal errors
	KindInternal
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindNotFound:
		return "NotFound"
	case KindDependencyFailure:
		return "DependencyFailure"
	case KindInternal:
		return "Internal"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// kindPriorities defines the deterministic order for error classification.
// Higher priority (lower index) kinds are checked first in KindOf.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil}, // context.Canceled (special case)
	{KindValidation, ErrValidation},
	{KindNotFound, ErrNotFound},
	{KindDependencyFailure, ErrDependencyFailure},
	{KindInternal, ErrInternal},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// It traverses the error chain using a deterministic priority order; for errors created
// with errors.Join the first matching kind in priority order wins.
// Returns KindUnknown for unrecognized errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		if priority.kind == KindCanceled {
			if IsCanceled(err) {
				return KindCanceled
			}
			continue
		}
		if errors.Is(err, priority.err) {
			return priority.kind
		}
	}

	return KindUnknown
}

// ErrorOf returns the sentinel error for the given Kind.
// For KindUnknown and KindCanceled, it returns nil.
func ErrorOf(kind Kind) error {
	for _, priority := range kindPriorities {
		if priority.kind == kind {
			return priority.err
		}
	}
	return nil
}

// MarkKind wraps an error with the sentinel error for the given kind,
// preserving the original error through error wrapping.
// If err is nil, returns the sentinel error for the kind.
// If kind is KindUnknown or KindCanceled, or err already has the kind,
// returns the original error unchanged.
//
// Example usage for adapting filesystem errors:
//
//	entries, err := os.ReadDir(dir)
//	if err != nil {
//	    return shared.MarkKind(err, shared.KindDependencyFailure)
//	}
func MarkKind(err error, kind Kind) error {
	sentinel := ErrorOf(kind)
	if err == nil {
		return sentinel
	}
	if sentinel == nil || KindOf(err) == kind {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
// If context is empty, returns the original error.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Validation returns a new validation error with a formatted message.
// A %w verb in format keeps the wrapped error in the chain.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %w", ErrValidation, fmt.Errorf(format, args...))
}

// IsCanceled reports whether the error indicates a canceled context.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// IsValidation reports whether the error indicates input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether the error indicates a resource not found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDependencyFailure reports whether the error indicates an external dependency failure.
func IsDependencyFailure(err error) bool {
	return errors.Is(err, ErrDependencyFailure)
}

// Process exit statuses returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitCanceled = 130
)

// ExitCode maps an error to a process exit status:
//
//	nil                    -> 0
//	KindValidation         -> 2 (bad arguments, bad time window)
//	KindCanceled           -> 130 (interrupted)
//	anything else          -> 1
func ExitCode(err error) int {
	switch KindOf(err) {
	case KindUnknown:
		if err == nil {
			return ExitOK
		}
		return ExitFailure
	case KindValidation:
		return ExitUsage
	case KindCanceled:
		return ExitCanceled
	default:
		return ExitFailure
	}
}
