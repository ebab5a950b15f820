package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Error kinds, as exposed to API clients.
const (
	KindNotFound     = "not_found"
	KindValidation   = "validation_error"
	KindInvalidState = "invalid_state"
	KindStore        = "store_error"
	KindUpstream     = "upstream_error"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "invalid input"
	}
	return err.Err.Error()
}

// NotFoundError is returned for unknown ids, including ids owned by another sheikh.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// StateError is returned when an operation is not allowed in the current state of a record.
type StateError struct {
	message string
}

func NewStateError(msg string) error {
	return &StateError{message: msg}
}

func (err StateError) Error() string {
	return err.message
}

// UpstreamError is returned when a remote service the API depends on fails.
type UpstreamError struct {
	message string
}

func NewUpstreamError(msg string) error {
	return &UpstreamError{message: msg}
}

func (err UpstreamError) Error() string {
	return err.message
}

// ErrorKind classifies err; anything unknown is a store error.
func ErrorKind(err error) string {
	switch errors.Cause(err).(type) {
	case *NotFoundError:
		return KindNotFound
	case *ValidationError, validator.ValidationErrors:
		return KindValidation
	case *StateError:
		return KindInvalidState
	case *UpstreamError:
		return KindUpstream
	default:
		return KindStore
	}
}

func IsNotFound(err error) bool {
	return ErrorKind(err) == KindNotFound
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
