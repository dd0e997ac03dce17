// Package apperrors defines the error taxonomy surfaced by the services.
//
// Storage engines translate their native failures into these types at the
// adapter boundary; services add NotFoundError and ValidationError of their own.
// Cache failures never surface as errors.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NotFoundError reports a single-entity lookup that matched no row.
type NotFoundError struct {
	Entity string
	Key    string
	Err    error
}

// NewNotFound builds a NotFoundError for entity looked up by key.
func NewNotFound(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError reports rejected input: a blank required string, a negative
// page size or a broken business rule such as self-follow.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidation builds a ValidationError for field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConstraintViolationError reports a uniqueness or foreign-key violation, or a
// write against a row that does not exist, as raised by the storage engine.
type ConstraintViolationError struct {
	Constraint string
	Err        error
}

// NewConstraintViolation wraps err under the named constraint.
func NewConstraintViolation(constraint string, err error) *ConstraintViolationError {
	return &ConstraintViolationError{Constraint: constraint, Err: err}
}

func (e *ConstraintViolationError) Error() string {
	if e.Err == nil {
		return "constraint violation: " + e.Constraint
	}
	return fmt.Sprintf("constraint violation: %s: %v", e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConstraintViolation reports whether err is or wraps a ConstraintViolationError.
func IsConstraintViolation(err error) bool {
	var target *ConstraintViolationError
	return errors.As(err, &target)
}

// FromValidation converts the result of an ozzo-validation ValidateStruct call.
// The first failing field in name order becomes the ValidationError; the full
// validation.Errors stays reachable through Unwrap. nil stays nil.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return err
		}
		return &ValidationError{Message: err.Error(), Err: err}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	first := fields[0]
	return &ValidationError{
		Field:   first,
		Message: strings.TrimSpace(fieldErrs[first].Error()),
		Err:     err,
	}
}
