package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions.
// Every pipeline failure is one of these four kinds; callers branch with errors.Is.
var (
	// ErrFormat: malformed or empty input data
	ErrFormat = errors.New("format error")
	// ErrSchema: a referenced column is absent or unusable
	ErrSchema = errors.New("schema error")
	// ErrTraining: the target cannot be coerced into binary labels
	ErrTraining = errors.New("training error")
	// ErrState: the operation needs session state that does not exist yet
	ErrState = errors.New("state error")

	ErrEmptyDataset   = fmt.Errorf("%w: dataset has zero rows", ErrFormat)
	ErrNoDataset      = fmt.Errorf("%w: no dataset ingested", ErrState)
	ErrNoArtifact     = fmt.Errorf("%w: no fitted model, train first", ErrState)
	ErrNoFeatures     = fmt.Errorf("%w: no feature columns besides target and id", ErrSchema)
	ErrMissingTargets = fmt.Errorf("%w: target column contains missing values", ErrTraining)
)

// Error constructors with context
func NewFormatError(reason string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrFormat, reason, cause)
	}
	return fmt.Errorf("%w: %s", ErrFormat, reason)
}

func NewColumnNotFoundError(role, column string) error {
	return fmt.Errorf("%w: %s column '%s' not found", ErrSchema, role, column)
}

func NewColumnKindError(column, want, got string) error {
	return fmt.Errorf("%w: column '%s' was %s at training time but is %s now", ErrSchema, column, want, got)
}

func NewTrainingError(reason string) error {
	return fmt.Errorf("%w: %s", ErrTraining, reason)
}

// Error checking helpers
func IsFormatError(err error) bool   { return errors.Is(err, ErrFormat) }
func IsSchemaError(err error) bool   { return errors.Is(err, ErrSchema) }
func IsTrainingError(err error) bool { return errors.Is(err, ErrTraining) }
func IsStateError(err error) bool    { return errors.Is(err, ErrState) }

// ErrorKind names the domain error kind of err, or "" for anything else
func ErrorKind(err error) string {
	switch {
	case IsFormatError(err):
		return "FormatError"
	case IsSchemaError(err):
		return "SchemaError"
	case IsTrainingError(err):
		return "TrainingError"
	case IsStateError(err):
		return "StateError"
	default:
		return ""
	}
}
