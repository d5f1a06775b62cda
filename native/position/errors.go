package position

import "errors"

var (
	ErrInvalidPositionDelta = errors.New("position: invalid base asset amount delta")
	ErrInsufficientLpShares = errors.New("position: insufficient lp shares to burn")
	ErrZeroSharesMint        = errors.New("position: cannot mint zero lp shares")
)
