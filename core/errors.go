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
		return ""
	}
	return err.Err.Error()
}

// DuplicateError reports a violated uniqueness invariant.
type DuplicateError struct {
	message string
}

func NewDuplicateError(msg string) error {
	return &DuplicateError{message: msg}
}

func (err DuplicateError) Error() string {
	return err.message
}

// NotFoundError reports a reference to a record that does not exist.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (err NotFoundError) Error() string {
	return err.message
}

// AuthError reports a credential, role or passcode mismatch.
type AuthError struct {
	message string
}

func NewAuthError(msg string) error {
	return &AuthError{message: msg}
}

func (err AuthError) Error() string {
	return err.message
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsDuplicate(err error) bool {
	_, ok := errors.Cause(err).(*DuplicateError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsAuth(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
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
