package amm

import "errors"

var (
	ErrInvalidReserve      = errors.New("amm: swap would cross min/max reserve bound")
	ErrZeroReserve         = errors.New("amm: reserve is zero")
	ErrDivergenceIncreased = errors.New("amm: candidate peg would increase oracle divergence")
	ErrInvalidAmount       = errors.New("amm: amount must be positive")
)
