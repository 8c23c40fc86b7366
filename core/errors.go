package core

import "github.com/pkg/errors"

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
		return "Validation errors"
	}
	return err.Err.Error()
}

// NotFoundError is returned by repositories when the requested record does not exist.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// DuplicateKeyError is returned by repositories when a unique field is already taken.
type DuplicateKeyError struct {
	Field   string
	message string
}

func NewDuplicateKeyError(field, msg string) *DuplicateKeyError {
	return &DuplicateKeyError{Field: field, message: msg}
}

func (err DuplicateKeyError) Error() string {
	return err.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsDuplicateKey(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateKeyError)
	return ok
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
