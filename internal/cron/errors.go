package cron

import (
	"fmt"
	"time"

	"cronls/internal/shared"
)

// FieldFormatError reports a syntactically invalid time field.
type FieldFormatError struct {
	Field  string // field name, e.g. "minute"
	Value  string // the whole raw field
	Token  string // the offending comma item
	Reason string
}

func (e *FieldFormatError) Error() string {
	if e.Token == e.Value {
		return fmt.Sprintf("%s field %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s field %q, item %q: %s", e.Field, e.Value, e.Token, e.Reason)
}

// Is classifies the error as a validation failure.
func (e *FieldFormatError) Is(target error) bool { return target == shared.ErrValidation }

func fieldError(spec FieldSpec, raw, token, reason string) *FieldFormatError {
	return &FieldFormatError{Field: spec.Name, Value: raw, Token: token, Reason: reason}
}

// MalformedLineError reports a crontab line that cannot be split into
// five time fields and a command.
type MalformedLineError struct {
	Line   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed line %q: %s", e.Line, e.Reason)
}

// Is classifies the error as a validation failure.
func (e *MalformedLineError) Is(target error) bool { return target == shared.ErrValidation }

// InvalidRangeError reports a simulation window whose stop precedes its start.
type InvalidRangeError struct {
	Start, Stop time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("start time (%s) is after stop time (%s)",
		e.Start.Format(TimeLayout), e.Stop.Format(TimeLayout))
}

// Is classifies the error as a validation failure.
func (e *InvalidRangeError) Is(target error) bool { return target == shared.ErrValidation }

// LineError is the diagnostic for a dropped crontab line.
type LineError struct {
	User string
	Line int // 1-based line number within the crontab
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("user %s: ignored line %d %q: %v", e.User, e.Line, e.Raw, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
