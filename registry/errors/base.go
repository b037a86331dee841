package errors

import (
	"github.com/ethereum/go-ethereum/common"
)

// NewAuthorizationError constructs a new CodedError which indicates that the
// caller does not hold the role required by a gated operation. The reason is
// fixed per operation, e.g. "only owner can set blueprint".
func NewAuthorizationError(reason string) *CodedError {
	return NewCodedError(ErrCodeAuthorizationError, "%s", reason)
}

func IsAuthorizationError(err error) bool {
	return HasErrorCode(err, ErrCodeAuthorizationError)
}

// NewInvalidArgumentErrorf constructs a new CodedError which indicates that an
// argument is not acceptable, such as the zero address as a new owner.
func NewInvalidArgumentErrorf(msg string, args ...interface{}) *CodedError {
	return NewCodedError(ErrCodeInvalidArgumentError, msg, args...)
}

func IsInvalidArgumentError(err error) bool {
	return HasErrorCode(err, ErrCodeInvalidArgumentError)
}

// NewIndexOutOfBoundsError is returned when a registry index is not below the
// current passthrough count.
func NewIndexOutOfBoundsError() *CodedError {
	return NewCodedError(ErrCodeIndexOutOfBoundsError, "index out of bounds")
}

func IsIndexOutOfBoundsError(err error) bool {
	return HasErrorCode(err, ErrCodeIndexOutOfBoundsError)
}

// NewCreationFailuref constructs a new CodedError which indicates that a new
// instance could not be stamped out of a blueprint.
func NewCreationFailuref(msg string, args ...interface{}) *CodedError {
	return NewCodedError(ErrCodeCreationFailure, msg, args...)
}

// NewBlueprintNotFoundError is returned when the referenced address holds no
// blueprint.
func NewBlueprintNotFoundError(address common.Address) *CodedError {
	return NewCreationFailuref("no blueprint at %s", address.Hex())
}

func IsCreationFailure(err error) bool {
	return HasErrorCode(err, ErrCodeCreationFailure)
}
