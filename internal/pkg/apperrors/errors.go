package apperrors

import (
	"errors"
	"fmt"
)

// Storage error kinds. Every error returned by the persistence layer matches
// exactly one of these with errors.Is.
var (
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrStorageFault        = errors.New("storage fault")
)

// Authentication and authorization errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrPermissionDenied   = errors.New("permission denied")
)

// StorageError is the uniform error carried out of the persistence layer.
type StorageError struct {
	// Kind is one of the storage error kind sentinels
	Kind error
	// Op names the failing operation, e.g. "enrollments.save"
	Op      string
	Message string
	// Err is the original cause, if any
	Err error
}

// Error implements error interface
func (e *StorageError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *StorageError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewStorageError creates a StorageError of the given kind
func NewStorageError(kind error, op, message string, cause error) *StorageError {
	return &StorageError{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     cause,
	}
}

// NotFound builds a NotFound error for op
func NotFound(op, format string, args ...any) error {
	return NewStorageError(ErrNotFound, op, fmt.Sprintf(format, args...), nil)
}

// Validation builds a ValidationError for op
func Validation(op, format string, args ...any) error {
	return NewStorageError(ErrValidationFailed, op, fmt.Sprintf(format, args...), nil)
}

// Conflict builds a ConstraintViolation for op
func Conflict(op, format string, args ...any) error {
	return NewStorageError(ErrConstraintViolation, op, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the storage kind carried by err, or nil if err is not a
// StorageError.
func KindOf(err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
