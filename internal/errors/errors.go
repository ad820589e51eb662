// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation indicates malformed request input
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeNotFound indicates an unknown operator or resource
	TypeNotFound Type = "NOT_FOUND"

	// TypeRegionAccess indicates the actor has no access to the operator's region
	TypeRegionAccess Type = "REGION_ACCESS_DENIED"

	// TypePermission indicates the actor lacks the tier-change permission
	TypePermission Type = "INSUFFICIENT_PERMISSIONS"

	// TypeNoChange indicates the requested tier equals the current tier
	TypeNoChange Type = "NO_CHANGE_NEEDED"

	// TypeQualification indicates the operator does not qualify for the requested tier
	TypeQualification Type = "QUALIFICATION_FAILED"

	// TypeEvaluation indicates the qualification evaluation could not run
	TypeEvaluation Type = "EVALUATION_ERROR"

	// TypeConflict indicates a concurrent transition holds the operator lock
	TypeConflict Type = "CONFLICT"

	// TypePersistence indicates a storage failure while applying a transition
	TypePersistence Type = "PERSISTENCE_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// Retryable reports whether the caller may retry the request.
// Persistence retries must re-read current state first; the no-op
// guard turns an already-applied retry into NO_CHANGE_NEEDED.
func (e *Error) Retryable() bool {
	switch e.Type {
	case TypeEvaluation, TypeConflict, TypePersistence:
		return true
	}
	return false
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// AsError extracts a typed error, wrapping an untyped one as internal
func AsError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return Wrap(TypeInternal, "unexpected error", err)
}

// Validation creates an input validation error
func Validation(message string) *Error {
	return New(TypeValidation, message)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// RegionAccess creates a region access error
func RegionAccess(actorID, region string) *Error {
	return Newf(TypeRegionAccess, "actor %s has no access to region %s", actorID, region)
}

// Permission creates a permission error
func Permission(actorID, permission string) *Error {
	return Newf(TypePermission, "actor %s lacks permission %s", actorID, permission)
}

// NoChange creates a no-op transition error
func NoChange(operatorID, tier string) *Error {
	return Newf(TypeNoChange, "operator %s already at tier %s", operatorID, tier)
}

// Qualification creates a qualification failure error
func Qualification(message string) *Error {
	return New(TypeQualification, message)
}

// Evaluation creates an evaluation error
func Evaluation(message string, cause error) *Error {
	return Wrap(TypeEvaluation, message, cause)
}

// Conflict creates a lock contention error
func Conflict(operatorID string) *Error {
	return Newf(TypeConflict, "transition already in flight for operator %s", operatorID)
}

// Persistence creates a storage error
func Persistence(message string, cause error) *Error {
	return Wrap(TypePersistence, message, cause)
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
