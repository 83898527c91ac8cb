package domain

import "errors"

// Error kinds. Every catalog failure the caller is expected to translate
// unwraps to exactly one of these. ErrInvalid covers input the service
// rejects after transport validation has passed.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// Error is a classified failure with a caller-facing message
type Error struct {
	kind    error
	message string
}

// NewNotFound creates an error of kind ErrNotFound
func NewNotFound(message string) *Error {
	return &Error{kind: ErrNotFound, message: message}
}

// NewConflict creates an error of kind ErrConflict
func NewConflict(message string) *Error {
	return &Error{kind: ErrConflict, message: message}
}

// NewInvalid creates an error of kind ErrInvalid
func NewInvalid(message string) *Error {
	return &Error{kind: ErrInvalid, message: message}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}
