package margin

import "errors"

var ErrUnknownMarket = errors.New("margin: referenced market not found in writable set")
