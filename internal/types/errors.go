package types

import (
	"errors"
	"fmt"
)

// ErrEncodingContract is the class of every encoding-contract violation.
// A violation means the caller broke a precondition of the wire format; the
// build that hit it must be abandoned, never retried with the same inputs.
var ErrEncodingContract = errors.New("encoding contract violation")

var (
	// ErrFieldOverflow a discriminant does not fit its flag field
	ErrFieldOverflow = contractError("flag field overflow")
	// ErrParamOutOfRange a numeric value does not fit its ABI word (int256 curve
	// parameters; uint256 ids, nonces, block numbers and order entries)
	ErrParamOutOfRange = contractError("value out of ABI word range")
	// ErrMalformedParams a parameter vector has the wrong shape for its curve type
	ErrMalformedParams = contractError("malformed curve parameter vector")
	// ErrUnknownCurveType the curve type has no parameter layout
	ErrUnknownCurveType = contractError("unknown curve type")
	// ErrIntentSigned the intent is sealed by a signature and can no longer change
	ErrIntentSigned = contractError("intent already signed")
	// ErrNilSegment a nil segment was appended
	ErrNilSegment = contractError("nil segment")
)

type encodingContractError struct {
	msg string
}

func contractError(msg string) error {
	return &encodingContractError{msg: msg}
}

func (e *encodingContractError) Error() string {
	return e.msg
}

func (e *encodingContractError) Unwrap() error {
	return ErrEncodingContract
}

// IsEncodingContract reports whether err is an encoding-contract violation
func IsEncodingContract(err error) bool {
	return errors.Is(err, ErrEncodingContract)
}

// Violation wraps a sentinel with call-site detail while keeping both
// errors.Is(err, sentinel) and errors.Is(err, ErrEncodingContract) true.
func Violation(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
