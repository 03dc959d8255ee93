package store

import (
	"errors"
	"fmt"
)

// MutationError represents a contract violation detected by the mutation
// engine. These are programming errors, not recoverable data errors: the
// enclosing transaction must be aborted and its triple discarded.
type MutationError struct {
	// Code identifies the error category.
	Code MutationErrorCode

	// Message is a human-readable description.
	Message string

	// DataID identifies the affected record, when known.
	DataID DataID

	// Field is the storage key involved, when the violation is field-level.
	Field string
}

// MutationErrorCode categorizes mutation errors.
type MutationErrorCode string

const (
	// ErrCodeDuplicateRecord indicates create was called for an identity
	// that is already existent.
	ErrCodeDuplicateRecord MutationErrorCode = "DUPLICATE_RECORD"

	// ErrCodeRootDeletion indicates delete was called on the reserved
	// root identity.
	ErrCodeRootDeletion MutationErrorCode = "ROOT_DELETION"

	// ErrCodeInvalidFieldValue indicates a scalar field write received a
	// non-array keyed value.
	ErrCodeInvalidFieldValue MutationErrorCode = "INVALID_FIELD_VALUE"

	// ErrCodeUnresolvedReference indicates an attempt to link to or modify
	// an identity that cannot be resolved.
	ErrCodeUnresolvedReference MutationErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeMissingHandler indicates a selection named a handle with no
	// registered handler implementation.
	ErrCodeMissingHandler MutationErrorCode = "MISSING_HANDLER"
)

// Error implements the error interface.
func (e *MutationError) Error() string {
	if e.DataID != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s (id=%s, field=%s)", e.Code, e.Message, e.DataID, e.Field)
	}
	if e.DataID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.DataID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateRecord reports whether err is a duplicate-record error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateRecord(err error) bool {
	return hasCode(err, ErrCodeDuplicateRecord)
}

// IsRootDeletion reports whether err is a root-deletion error.
func IsRootDeletion(err error) bool {
	return hasCode(err, ErrCodeRootDeletion)
}

// IsInvalidFieldValue reports whether err is an invalid-field-value error.
func IsInvalidFieldValue(err error) bool {
	return hasCode(err, ErrCodeInvalidFieldValue)
}

// IsUnresolvedReference reports whether err is an unresolved-reference error.
func IsUnresolvedReference(err error) bool {
	return hasCode(err, ErrCodeUnresolvedReference)
}

// IsMissingHandler reports whether err is a missing-handler error.
func IsMissingHandler(err error) bool {
	return hasCode(err, ErrCodeMissingHandler)
}

func hasCode(err error, code MutationErrorCode) bool {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Code == code
	}
	return false
}

// NewDuplicateRecordError creates a MutationError for a create on an
// already-existent identity.
func NewDuplicateRecordError(id DataID) *MutationError {
	return &MutationError{
		Code:    ErrCodeDuplicateRecord,
		Message: fmt.Sprintf("a record already exists for id %q", id),
		DataID:  id,
	}
}

// NewRootDeletionError creates a MutationError for a delete on the root
// identity.
func NewRootDeletionError() *MutationError {
	return &MutationError{
		Code:    ErrCodeRootDeletion,
		Message: "cannot delete the root record",
		DataID:  RootID,
	}
}

// NewInvalidFieldValueError creates a MutationError for a scalar write that
// received a keyed (non-array) value.
func NewInvalidFieldValueError(id DataID, field string) *MutationError {
	return &MutationError{
		Code:    ErrCodeInvalidFieldValue,
		Message: "scalar fields cannot hold keyed objects, use a linked record",
		DataID:  id,
		Field:   field,
	}
}

// NewUnresolvedReferenceError creates a MutationError for an operation on
// an identity that cannot be resolved in sink or base.
func NewUnresolvedReferenceError(id DataID, field string) *MutationError {
	return &MutationError{
		Code:    ErrCodeUnresolvedReference,
		Message: fmt.Sprintf("cannot resolve record %q", id),
		DataID:  id,
		Field:   field,
	}
}

// NewMissingHandlerError creates a MutationError for a handle with no
// registered handler.
func NewMissingHandlerError(handle string) *MutationError {
	return &MutationError{
		Code:    ErrCodeMissingHandler,
		Message: fmt.Sprintf("no handler registered for handle %q", handle),
		Field:   handle,
	}
}
