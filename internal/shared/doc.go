// Package shared contains common error types and utilities for error handling
// across cronls without domain-specific logic.
//
// # Error Classification
//
// A small set of sentinel errors describes the failure categories the tool
// distinguishes:
//
//   - ErrValidation: bad input (malformed crontab line, bad flag, inverted window)
//   - ErrNotFound: a requested resource does not exist
//   - ErrDependencyFailure: an external collaborator (filesystem, crontab command) failed
//   - ErrInternal: a bug
//
// Domain error types opt into a category by implementing Is:
//
//	func (e *FieldFormatError) Is(target error) bool { return target == shared.ErrValidation }
//
// Use KindOf() to classify errors:
//
//	switch shared.KindOf(err) {
//	case shared.KindValidation:
//	    // report and continue with the next line
//	case shared.KindDependencyFailure:
//	    // abort the run
//	}
//
// # Kind Priority Table
//
// When multiple error kinds are present (e.g., with errors.Join), KindOf returns the highest priority kind:
//
//	Priority | Kind                  | Description
//	---------|-----------------------|--------------------
//	1        | KindCanceled          | Context cancellation (highest)
//	2        | KindValidation        | Input validation failures
//	3        | KindNotFound          | Resource not found
//	4        | KindDependencyFailure | External collaborator failures
//	5        | KindInternal          | Internal errors (lowest)
//
// # Error Wrapping and Marking
//
// Add context to errors while preserving the original error:
//
//	if err := readCrontab(path); err != nil {
//	    return shared.Wrapf(err, "read crontab %s", path)
//	}
//
// Classify third-party errors with MarkKind:
//
//	if _, err := os.ReadDir(dir); err != nil {
//	    return shared.MarkKind(err, shared.KindDependencyFailure)
//	}
//
// # Exit Codes
//
// The command maps the final error to a process status with ExitCode, so
// usage mistakes (status 2) can be told apart from environment failures
// (status 1).
package shared
