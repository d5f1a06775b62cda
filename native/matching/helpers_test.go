package matching

import (
	"testing"

	"novaperp/core/fixedmath"
	"novaperp/core/oracle"
)

var testOracleKey = oracle.Key{Pubkey: "perp-0"}

func oracleMapWithValidEntry(t *testing.T) *oracle.Map {
	t.Helper()
	m := oracle.NewMap()
	m.Load(testOracleKey, 95*fixedmath.PricePrecision, 10, 1, 1, 95*fixedmath.PricePrecision, 95*fixedmath.PricePrecision, oracle.DefaultTolerances())
	return m
}
