package types

import "errors"

var errNoAvailablePositionSlots = errors.New("types: user has no available position slots")
