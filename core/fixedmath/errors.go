package fixedmath

import "errors"

var (
	// ErrOverflow is returned whenever a checked arithmetic operation would
	// not fit in the destination integer width.
	ErrOverflow = errors.New("fixedmath: checked arithmetic overflow")
	// ErrDivideByZero is returned by any division helper given a zero
	// denominator.
	ErrDivideByZero = errors.New("fixedmath: division by zero")
)
