// Package config loads the matching daemon's TOML configuration, following
// the teacher's config/config.go (load-or-create-default) and
// native/lending/config.go (EnsureDefaults backfilling zero-value fields)
// pattern, spec §10.3.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"novaperp/core/oracle"
	"novaperp/native/fees"
	"novaperp/native/funding"
	"novaperp/native/margin"
)

// Config is the daemon's full runtime configuration.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Env           string `toml:"Env"`

	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Reporting ReportingConfig `toml:"reporting"`

	Risk          RiskConfig    `toml:"risk"`
	FeeTiers      []FeeTier     `toml:"fee_tier"`
	OracleTol     ToleranceCfg  `toml:"oracle_tolerance"`
	Auction       AuctionConfig `toml:"auction"`

	// PerpMarketIndices/SpotMarketIndices declare the writable set (spec
	// §5) cmd/matchingd loads from storage at boot; markets themselves are
	// provisioned by an out-of-scope admin/governance flow (spec §1).
	PerpMarketIndices []uint16 `toml:"PerpMarketIndices"`
	SpotMarketIndices []uint16 `toml:"SpotMarketIndices"`
}

// LoggingConfig drives observability/logging.Setup and, for the standalone
// daemon, its lumberjack-backed rotating file sink.
type LoggingConfig struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// TelemetryConfig drives observability/telemetry.Init.
type TelemetryConfig struct {
	Enabled     bool   `toml:"Enabled"`
	Endpoint    string `toml:"Endpoint"`
	Insecure    bool   `toml:"Insecure"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// GatewayConfig configures the chi HTTP surface and its middleware.
type GatewayConfig struct {
	ListenAddress string                    `toml:"ListenAddress"`
	AuthEnabled   bool                      `toml:"AuthEnabled"`
	JWTSecret     string                    `toml:"JWTSecret"`
	JWTIssuer     string                    `toml:"JWTIssuer"`
	RateLimits    map[string]RateLimitEntry `toml:"rate_limit"`
}

// RateLimitEntry is one named bucket of GatewayConfig.RateLimits.
type RateLimitEntry struct {
	RatePerSecond float64 `toml:"RatePerSecond"`
	Burst         int     `toml:"Burst"`
}

// ReportingConfig selects the reporting store backend and archival target.
type ReportingConfig struct {
	Driver        string `toml:"Driver"` // "postgres" or "sqlite"
	DSN           string `toml:"DSN"`
	ParquetExport string `toml:"ParquetExportDir"`
}

// RiskConfig carries the engine's margin buffer and price-band parameters.
type RiskConfig struct {
	LiquidationBufferBps uint32 `toml:"LiquidationBufferBps"`
	PriceBandBufferBps   int64  `toml:"PriceBandBufferBps"`
	MaxFundingRateBps    int64  `toml:"MaxFundingRateBps"`
}

// FeeTier mirrors native/fees.Tier for TOML decoding.
type FeeTier struct {
	MinVolume      int64 `toml:"MinVolume"`
	TakerFeeBps    int64 `toml:"TakerFeeBps"`
	MakerRebateBps int64 `toml:"MakerRebateBps"`
}

// ToleranceCfg mirrors core/oracle.Tolerances for TOML decoding.
type ToleranceCfg struct {
	MaxDelaySlots       uint64 `toml:"MaxDelaySlots"`
	MaxConfidenceBps    uint64 `toml:"MaxConfidenceBps"`
	MaxTwapDeviationBps uint64 `toml:"MaxTwapDeviationBps"`
}

// AuctionConfig carries default auction timing for triggered orders.
type AuctionConfig struct {
	MinDurationSlots  uint32 `toml:"MinDurationSlots"`
	DefaultSlippageBps int64 `toml:"DefaultSlippageBps"`
}

// Load reads path, or writes and returns a conservative default
// configuration if it does not yet exist, following config.Load.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.EnsureDefaults()
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode default config: %w", err)
	}
	return cfg, nil
}

// Default returns the conservative baseline configuration used to seed a
// fresh config file or a test harness.
func Default() *Config {
	cfg := &Config{
		ListenAddress: ":6101",
		DataDir:       "./novaperp-data",
		Env:           "dev",
		Logging:       LoggingConfig{Level: "info", File: "./novaperp-data/matchingd.log", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30, Compress: true},
		Gateway:       GatewayConfig{ListenAddress: ":8090"},
		Reporting:     ReportingConfig{Driver: "sqlite", DSN: "file:novaperp-data/reporting.db?cache=shared"},
		PerpMarketIndices: []uint16{0},
		SpotMarketIndices: []uint16{0},
	}
	cfg.EnsureDefaults()
	return cfg
}

// EnsureDefaults backfills zero-value fields the same way
// native/lending.Config.EnsureDefaults backfills nil big.Int fields: a
// config loaded from a partially-filled TOML file still produces a
// runnable engine.
func (c *Config) EnsureDefaults() {
	if len(c.FeeTiers) == 0 {
		for _, t := range fees.DefaultTiers() {
			c.FeeTiers = append(c.FeeTiers, FeeTier{MinVolume: t.MinVolume, TakerFeeBps: t.TakerFeeBps, MakerRebateBps: t.MakerRebateBps})
		}
	}
	if c.OracleTol == (ToleranceCfg{}) {
		tol := oracle.DefaultTolerances()
		c.OracleTol = ToleranceCfg{MaxDelaySlots: tol.MaxDelaySlots, MaxConfidenceBps: tol.MaxConfidenceBps, MaxTwapDeviationBps: tol.MaxTwapDeviationBps}
	}
	if c.Auction.MinDurationSlots == 0 {
		c.Auction.MinDurationSlots = 10
	}
	if c.Auction.DefaultSlippageBps == 0 {
		c.Auction.DefaultSlippageBps = 100
	}
	if c.Risk.MaxFundingRateBps == 0 {
		c.Risk.MaxFundingRateBps = 100
	}
}

// FeeTierTable converts the decoded fee schedule into native/fees.Tier rows.
func (c *Config) FeeTierTable() []fees.Tier {
	out := make([]fees.Tier, 0, len(c.FeeTiers))
	for _, t := range c.FeeTiers {
		out = append(out, fees.Tier{MinVolume: t.MinVolume, TakerFeeBps: t.TakerFeeBps, MakerRebateBps: t.MakerRebateBps})
	}
	return out
}

// OracleTolerances converts OracleTol into core/oracle.Tolerances.
func (c *Config) OracleTolerances() oracle.Tolerances {
	return oracle.Tolerances{
		MaxDelaySlots:       c.OracleTol.MaxDelaySlots,
		MaxConfidenceBps:    c.OracleTol.MaxConfidenceBps,
		MaxTwapDeviationBps: c.OracleTol.MaxTwapDeviationBps,
	}
}

// FundingRiskCaps converts Risk into native/funding.RiskCaps.
func (c *Config) FundingRiskCaps() funding.RiskCaps {
	return funding.RiskCaps{MaxFundingRateBps: c.Risk.MaxFundingRateBps}
}

// LiquidationBuffer converts Risk.LiquidationBufferBps into
// native/margin.BufferRatioBps.
func (c *Config) LiquidationBuffer() margin.BufferRatioBps {
	return margin.BufferRatioBps(c.Risk.LiquidationBufferBps)
}
