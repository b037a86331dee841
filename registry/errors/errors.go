package errors

import (
	stdErrors "errors"
	"fmt"
)

// CodedError is the error returned for every rejected registry operation.
// Error() yields the bare reason string; callers and tests match on it
// verbatim, so it must never carry decoration.
type CodedError struct {
	code   ErrorCode
	reason string
	err    error
}

// NewCodedError constructs a CodedError whose reason is the formatted msg.
func NewCodedError(code ErrorCode, msg string, args ...interface{}) *CodedError {
	return &CodedError{
		code:   code,
		reason: fmt.Sprintf(msg, args...),
	}
}

// WrapCodedError constructs a CodedError that keeps err as its cause.
func WrapCodedError(code ErrorCode, err error, reason string) *CodedError {
	return &CodedError{
		code:   code,
		reason: reason,
		err:    err,
	}
}

func (e *CodedError) Error() string {
	return e.reason
}

func (e *CodedError) Unwrap() error {
	return e.err
}

// Code returns the error code for this error
func (e *CodedError) Code() ErrorCode {
	return e.code
}

// Reason returns the reason string carried by the error.
func (e *CodedError) Reason() string {
	return e.reason
}

// Failure is an internal fault (storage, encoding) that is not the caller's
// doing. Operations that hit a failure still leave no partial state.
type Failure struct {
	code FailureCode
	err  error
}

func (e *Failure) Error() string {
	return fmt.Sprintf("%s %s", e.code.String(), e.err.Error())
}

func (e *Failure) Unwrap() error {
	return e.err
}

// FailureCode returns the failure code
func (e *Failure) FailureCode() FailureCode {
	return e.code
}

// NewJournalFailure wraps an error returned by the commit log.
func NewJournalFailure(err error) *Failure {
	return &Failure{
		code: FailureCodeJournalFailure,
		err:  fmt.Errorf("commit log returns unsuccessful: %w", err),
	}
}

// NewEncodingFailuref formats and returns a new encoding Failure
func NewEncodingFailuref(msg string, err error) *Failure {
	return &Failure{
		code: FailureCodeEncodingFailure,
		err:  fmt.Errorf(msg, err),
	}
}

// NewUnknownFailure wraps an unclassified internal error.
func NewUnknownFailure(err error) *Failure {
	return &Failure{
		code: FailureCodeUnknownFailure,
		err:  err,
	}
}

// HasErrorCode reports whether err, or any error it wraps, is a CodedError
// with the given code.
func HasErrorCode(err error, code ErrorCode) bool {
	var coded *CodedError
	if !stdErrors.As(err, &coded) {
		return false
	}
	return coded.code == code
}

// HasFailureCode reports whether err wraps a Failure with the given code.
func HasFailureCode(err error, code FailureCode) bool {
	var failure *Failure
	if !stdErrors.As(err, &failure) {
		return false
	}
	return failure.code == code
}

// IsFailure returns true if the error is un-coded or wraps a Failure.
func IsFailure(err error) bool {
	if err == nil {
		return false
	}
	var failure *Failure
	if stdErrors.As(err, &failure) {
		return true
	}
	var coded *CodedError
	return !stdErrors.As(err, &coded)
}

// Reason extracts the reason string of the outermost CodedError in the chain.
// It falls back to err.Error() for anything else.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if stdErrors.As(err, &coded) {
		return coded.reason
	}
	return err.Error()
}
