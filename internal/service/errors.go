package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductProtected   = errors.New("product is referenced by existing orders and cannot be deleted")
	ErrTotalsChanged      = errors.New("cart totals changed since they were displayed")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every invalid field of a submitted form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// Add appends a field error
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// errOrNil returns nil when no field was flagged
func (e *ValidationError) errOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// TotalsChangedError reports the live totals when the ones a customer saw are stale.
type TotalsChangedError struct {
	Current Totals
}

func (e *TotalsChangedError) Error() string {
	return fmt.Sprintf("%s: total is now %s", ErrTotalsChanged.Error(), e.Current.Total.StringFixed(2))
}

func (e *TotalsChangedError) Unwrap() error {
	return ErrTotalsChanged
}
