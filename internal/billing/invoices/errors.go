package invoices

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/worklog/internal/shared"
)

var (
	// ErrNotFound indicates the invoice does not exist for the caller's tenant.
	ErrNotFound = fmt.Errorf("invoice %w", shared.ErrNotFound)
	// ErrDailyReportNotFound indicates a linked daily report is unknown to the tenant.
	ErrDailyReportNotFound = fmt.Errorf("daily report %w", shared.ErrNotFound)

	ErrNotDraft         = errors.New("only a draft can be issued")
	ErrAlreadyIssued    = fmt.Errorf("%w: invoice already issued", ErrNotDraft)
	ErrAlreadyCanceled  = errors.New("invoice already canceled")
	ErrCanceledReadOnly = errors.New("cannot edit a canceled invoice")
	ErrNoBillableItems  = errors.New("invoice has no billable items")
	ErrZeroTotal        = errors.New("total amount must be greater than zero")

	// ErrSequencingConflict is raised when a concurrent issuance claimed the
	// same number. It never leaves the service while retries remain.
	ErrSequencingConflict = errors.New("invoices: sequencing conflict")
	// ErrTryAgain is returned when conflicting writes persisted past the retry budget.
	ErrTryAgain = fmt.Errorf("invoices: could not complete the operation, try again: %w", shared.ErrUnavailable)
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []shared.FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches shared.ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == shared.ErrInvalidInput
}

// FieldErrors exposes the failing fields.
func (e *ValidationError) FieldErrors() []shared.FieldError {
	if e == nil {
		return nil
	}
	return e.Fields
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, shared.FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StateError reports a transition rejected by the invoice's current status.
type StateError struct {
	InvoiceID int64
	Status    Status
	Field     string
	Err       error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invoice %d (%s): %v", e.InvoiceID, e.Status, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// Is matches shared.ErrConflict so transports can treat every state error alike.
func (e *StateError) Is(target error) bool {
	return target == shared.ErrConflict
}

// FieldErrors attributes the failure to a field when one is known.
func (e *StateError) FieldErrors() []shared.FieldError {
	if e.Field == "" {
		return nil
	}
	return []shared.FieldError{{Field: e.Field, Message: e.Err.Error()}}
}

func stateError(inv *Invoice, err error) error {
	return &StateError{InvoiceID: inv.ID, Status: inv.Status, Err: err}
}
