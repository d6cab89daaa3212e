package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrForbidden indicates the caller is not allowed to act on the target.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the wire-level error code for a 400 response.
type ValidationError struct {
	Code string
}

func (e ValidationError) Error() string {
	return e.Code
}

// Validation builds a ValidationError with the given wire code.
func Validation(code string) error {
	return ValidationError{Code: code}
}
