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

// ErrorKind classifies business-rule failures so transports can map them to status codes.
type ErrorKind int

const (
	KindUnauthorized ErrorKind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindUnprocessable
	KindBadRequest
	KindInvalidRecord // rejected record; reported as a server error with a readable message
)

type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (err *RuleError) Error() string {
	return err.Message
}

func NewRuleError(kind ErrorKind, msg string) error {
	return &RuleError{Kind: kind, Message: msg}
}

// RuleKind returns the ErrorKind of err if its cause is a *RuleError.
func RuleKind(err error) (ErrorKind, bool) {
	if rErr, ok := errors.Cause(err).(*RuleError); ok {
		return rErr.Kind, true
	}
	return 0, false
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
