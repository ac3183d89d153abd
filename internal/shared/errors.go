package shared

import "errors"

// Error classes shared by domain packages. Domain errors wrap or match one of
// these so transports can map them without importing every domain package.
var (
	// ErrNotFound indicates resource not found or not owned by the caller's tenant.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks caller-supplied data that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks an operation rejected by the current resource state.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a transient failure the caller may retry.
	ErrUnavailable = errors.New("temporarily unavailable")
	// ErrUnauthorized indicates a missing or invalid caller identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// FieldError attributes a validation failure to a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrorer is implemented by errors that carry field level detail.
type FieldErrorer interface {
	FieldErrors() []FieldError
}

// InvalidFieldError rejects a single input field. It matches ErrInvalidInput.
type InvalidFieldError struct {
	FieldError
}

// InvalidField builds an InvalidFieldError for field.
func InvalidField(field, message string) error {
	return &InvalidFieldError{FieldError{Field: field, Message: message}}
}

func (e *InvalidFieldError) Error() string {
	return "invalid input: " + e.Field + " " + e.Message
}

// Is matches ErrInvalidInput.
func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidInput }

// FieldErrors exposes the failing field.
func (e *InvalidFieldError) FieldErrors() []FieldError { return []FieldError{e.FieldError} }
