package engine

import "fmt"

// ValidationError indicates malformed or out-of-range input.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// InvalidStateError indicates an operation not allowed in the entity's
// current lifecycle state.
type InvalidStateError struct {
	Msg string
}

func (e InvalidStateError) Error() string { return e.Msg }

// ConflictError indicates a lost optimistic-concurrency race.
type ConflictError struct {
	Msg string
}

func (e ConflictError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func invalidStatef(format string, args ...any) error {
	return InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return ConflictError{Msg: fmt.Sprintf(format, args...)}
}
