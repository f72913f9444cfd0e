package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrUploadFailed      = errors.New("upload failed")
	ErrMisconfigured     = errors.New("config invalid")
)

// Error carries a client-facing message; errors.Is matches its Kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Same message for unknown user and wrong password.
func invalidCredentials() error {
	return newError(ErrInvalidCredential, "invalid credentials")
}
