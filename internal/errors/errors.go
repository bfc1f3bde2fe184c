package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrConfiguration      = New(ErrCodeConfiguration, "configuration error")
	ErrMissingData        = New(ErrCodeMissingData, "record is missing required data")
	ErrDiscountResolution = New(ErrCodeDiscountResolution, "discount grid resolution failed")
	ErrNotFound           = New(ErrCodeNotFound, "resource not found")
	ErrValidation         = New(ErrCodeValidation, "validation error")
	ErrHTTPClient         = New(ErrCodeHTTPClient, "http client error")
	ErrSystem             = New(ErrCodeSystemError, "system error")
)

const (
	ErrCodeConfiguration      = "configuration_error"
	ErrCodeMissingData        = "missing_data"
	ErrCodeDiscountResolution = "discount_resolution_error"
	ErrCodeNotFound           = "not_found"
	ErrCodeValidation         = "validation_error"
	ErrCodeHTTPClient         = "http_client_error"
	ErrCodeSystemError        = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsMissingData checks if an error is a missing data error
func IsMissingData(err error) bool {
	return errors.Is(err, ErrMissingData)
}

// IsDiscountResolution checks if an error is a discount resolution error
func IsDiscountResolution(err error) bool {
	return errors.Is(err, ErrDiscountResolution)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}
