package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes used across the service.
const (
	CodeAllocationFailed  = "ALLOCATION_FAILED"
	CodeNoEligibleAgents  = "NO_ELIGIBLE_AGENTS"
	CodeNotFound          = "NOT_FOUND"
	CodePersistenceFailed = "PERSISTENCE_FAILED"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewAllocationError signals that a counter increment or seed attempt could
// not complete. Fatal to the triggering create operation.
func NewAllocationError(counterName string, err error) error {
	return &DomainError{
		Code:       CodeAllocationFailed,
		Message:    fmt.Sprintf("could not allocate next value for counter %q", counterName),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"counter": counterName},
		Err:        err,
	}
}

// NewNoEligibleAgents signals an empty active service-desk roster.
func NewNoEligibleAgents() error {
	return NewDomainError(CodeNoEligibleAgents, "no active service desk agents available", http.StatusConflict, nil)
}

// NewPersistenceError wraps a failed store call with context.
func NewPersistenceError(operation string, err error) error {
	return &DomainError{
		Code:       CodePersistenceFailed,
		Message:    fmt.Sprintf("store operation %s failed", operation),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": operation},
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsNoEligibleAgents reports the empty-roster condition, which read paths
// treat as non-fatal.
func IsNoEligibleAgents(err error) bool {
	return HasCode(err, CodeNoEligibleAgents)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
