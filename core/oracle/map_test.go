package oracle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"novaperp/core/types"
)

func TestLoadClassifiesStaleness(t *testing.T) {
	m := NewMap()
	key := Key{Pubkey: "sol-usd", Source: SourcePyth}
	tol := Tolerances{MaxDelaySlots: 5, MaxConfidenceBps: 100, MaxTwapDeviationBps: 500}

	m.Load(key, 100_000_000, 10_000, 100, 101, 100_000_000, 100_000_000, tol)
	require.True(t, m.IsOracleValidForAction(key, types.OracleActionFillOrderAmm))

	m.Load(key, 100_000_000, 10_000, 100, 200, 100_000_000, 100_000_000, tol)
	require.False(t, m.IsOracleValidForAction(key, types.OracleActionFillOrderAmm))
}

func TestLoadClassifiesDeviationFromTwap(t *testing.T) {
	m := NewMap()
	key := Key{Pubkey: "sol-usd", Source: SourcePyth}
	tol := Tolerances{MaxDelaySlots: 50, MaxConfidenceBps: 1000, MaxTwapDeviationBps: 500}

	m.Load(key, 110_000_000, 1_000, 100, 100, 100_000_000, 100_000_000, tol)
	require.False(t, m.IsOracleValidForAction(key, types.OracleActionFillOrderAmm))
	require.True(t, m.IsOracleValidForAction(key, types.OracleActionTriggerOrder))
}

func TestIsOracleValidForActionMissing(t *testing.T) {
	m := NewMap()
	require.False(t, m.IsOracleValidForAction(Key{Pubkey: "missing"}, types.OracleActionMarginCalc))
}
