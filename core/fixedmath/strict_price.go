package fixedmath

import "math/big"

// StrictOraclePrice carries both a spot oracle reading and its 5-minute TWAP
// so the margin engine can always pick the conservative side, per spec §4.A.
type StrictOraclePrice struct {
	Current *big.Int
	Twap    *big.Int
}

// NewStrictOraclePrice wraps the given current/TWAP readings.
func NewStrictOraclePrice(current, twap *big.Int) StrictOraclePrice {
	return StrictOraclePrice{Current: current, Twap: twap}
}

// Max returns the larger of current and TWAP, the conservative choice when
// valuing a liability (a bigger price means a bigger liability).
func (p StrictOraclePrice) Max() *big.Int {
	if p.Current == nil {
		return p.Twap
	}
	if p.Twap == nil {
		return p.Current
	}
	if p.Current.Cmp(p.Twap) >= 0 {
		return p.Current
	}
	return p.Twap
}

// Min returns the smaller of current and TWAP, the conservative choice when
// valuing an asset (a smaller price means less collateral credit).
func (p StrictOraclePrice) Min() *big.Int {
	if p.Current == nil {
		return p.Twap
	}
	if p.Twap == nil {
		return p.Current
	}
	if p.Current.Cmp(p.Twap) <= 0 {
		return p.Current
	}
	return p.Twap
}
