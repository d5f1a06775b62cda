package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchingd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.FeeTiers)
	require.NotZero(t, cfg.Auction.MinDurationSlots)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, reloaded.ListenAddress)
	require.Equal(t, cfg.FeeTiers, reloaded.FeeTiers)
}

func TestEnsureDefaultsBackfillsFeeTiers(t *testing.T) {
	cfg := &Config{}
	cfg.EnsureDefaults()
	require.NotEmpty(t, cfg.FeeTiers)
	require.NotZero(t, cfg.OracleTol.MaxDelaySlots)
}

func TestFeeTierTableConvertsRows(t *testing.T) {
	cfg := Default()
	table := cfg.FeeTierTable()
	require.Len(t, table, len(cfg.FeeTiers))
	require.Equal(t, cfg.FeeTiers[0].TakerFeeBps, table[0].TakerFeeBps)
}
