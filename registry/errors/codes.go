package errors

import "fmt"

type ErrorCode uint16

func (ec ErrorCode) String() string {
	return fmt.Sprintf("[Error Code: %d]", ec)
}

type FailureCode uint16

func (fc FailureCode) String() string {
	return fmt.Sprintf("[Failure Code: %d]", fc)
}

const (
	FailureCodeUnknownFailure  FailureCode = 2000
	FailureCodeEncodingFailure FailureCode = 2001
	FailureCodeJournalFailure  FailureCode = 2002
)

const (
	// base errors 1050 - 1100
	ErrCodeInvalidArgumentError  ErrorCode = 1052
	ErrCodeAuthorizationError    ErrorCode = 1055
	ErrCodeIndexOutOfBoundsError ErrorCode = 1058

	// instantiation errors 1120 - 1150
	ErrCodeCreationFailure ErrorCode = 1120
)
