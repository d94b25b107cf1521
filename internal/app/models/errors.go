package models

import "errors"

// Domain specific errors, mapped to HTTP statuses at the handler boundary.
var (
	ErrNotFound           = errors.New("requested item not found")
	ErrConflict           = errors.New("item already exists or conflict")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("action forbidden")
	ErrValidation         = errors.New("validation failed")
)

// Error pairs a client-facing message with one of the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an error that matches kind under errors.Is and reads as msg.
func NewError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}
