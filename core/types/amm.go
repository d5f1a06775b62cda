package types

// HistoricalOracleData tracks the TWAP/TWAP-5min bookkeeping embedded
// directly in AMM/SpotMarket rather than pointer-linked, per spec §6
// ("LP counters and historical_oracle_data are embedded").
type HistoricalOracleData struct {
	LastOraclePrice         int64
	LastOracleConf          uint64
	LastOracleDelay         int64
	LastOraclePriceTwap      int64
	LastOraclePriceTwap5Min int64
	LastOraclePriceTwapTs   int64
}

// AMM is the constant-product reserve model backing a perp market, spec §3.
type AMM struct {
	BaseAssetReserve  int64
	QuoteAssetReserve int64
	SqrtK             int64
	PegMultiplier     int64
	ConcentrationCoef int64

	TerminalQuoteAssetReserve int64

	BidBaseAssetReserve  int64
	BidQuoteAssetReserve int64
	AskBaseAssetReserve  int64
	AskQuoteAssetReserve int64

	MinBaseAssetReserve int64
	MaxBaseAssetReserve int64

	BaseAssetAmountWithAmm         int64
	BaseAssetAmountLong            int64
	BaseAssetAmountShort           int64
	BaseAssetAmountWithUnsettledLp int64

	UserLpShares             int64
	BaseAssetAmountPerLp     int64 // signed, per-share delta accumulator
	QuoteAssetAmountPerLp    int64
	TargetBaseAssetAmountPerLp int64

	CumulativeFundingRateLong  int64
	CumulativeFundingRateShort int64
	LastFundingRateTs          int64
	FundingPeriod              int64

	LastMarkPriceTwap      int64
	LastMarkPriceTwap5Min  int64
	LastMarkPriceTwapTs    int64
	HistoricalOracleData   HistoricalOracleData

	BaseSpread         uint32 // basis points
	LongSpread         uint32
	ShortSpread        uint32
	MaxSpread          uint32
	OrderStepSize      int64
	OrderTickSize      int64
	MinOrderSize       int64
	MaxFillReserveFraction uint32 // denominator for max_fill = sqrt_k / fraction
	MaxSlippageRatio   uint32    // basis points
	MaxOpenInterest    int64
	AmmJitIntensity    uint8 // 0-200

	TotalFee                   int64
	TotalMMFee                 int64
	TotalFeeMinusDistributions int64
	TotalExchangeFee           int64
	NetRevenueSinceLastFunding int64
	TotalLiquidationFee        int64
	TotalFeeWithdrawn          int64

	CumulativeSocialLoss int64
}

// Clone deep-copies the AMM (value type, no pointer members, so a plain copy
// suffices; kept for readability at call sites that want to express intent).
func (a AMM) Clone() AMM { return a }

type InsuranceClaimState struct {
	RevenueWithdrawSinceLastSettle int64
	MaxRevenueWithdrawPerPeriod    int64
	LastRevenueWithdrawTs          int64
	QuoteSettledInsurance          int64
	QuoteMaxInsurance              int64
}

// PerpMarket is a perpetual market, spec §3.
type PerpMarket struct {
	MarketIndex  uint16
	OracleId     string
	Status       MarketStatus
	ContractType ContractType
	AMM          AMM

	MarginRatioInitial     uint32 // basis points of MarginPrecision
	MarginRatioMaintenance uint32
	ImfFactor              uint32
	LiquidatorFee          uint32 // LiquidationFeePrecision
	IfLiquidationFee       uint32

	NumberOfUsers             uint32
	NumberOfUsersWithBase     uint32
	NextFillRecordId          uint64
	NextFundingRateRecordId   uint64
	PausedOperations          PausedOperation
	ExpiryPrice               int64 // signed, 0 if not expired
	InsuranceClaim            InsuranceClaimState
	FeeAdjustment             int32 // bps applied on top of fee tiers

	// HighLeverage mode carries a distinct, tighter OI cap alongside a
	// looser leverage tier (§12 supplemented feature).
	HighLeverageMaxOpenInterest   int64
	HighLeverageMarginRatioInitial uint32
}

// SpotMarket is a spot-margin market, spec §3.
type SpotMarket struct {
	MarketIndex uint16
	PoolId      uint8
	Mint        string
	Decimals    uint8
	OracleId    string
	Status      MarketStatus

	InitialAssetWeight      uint32 // MarginPrecision
	MaintenanceAssetWeight  uint32
	InitialLiabilityWeight  uint32
	MaintenanceLiabilityWeight uint32
	ImfFactor               uint32
	LiquidatorFee           uint32
	IfLiquidationFee        uint32

	CumulativeDepositInterest int64 // SpotCumulativeIntPrecision
	CumulativeBorrowInterest  int64

	DepositBalance int64 // scaled balance units
	BorrowBalance  int64
	RevenuePool    int64
	SpotFeePool    int64

	OrderStepSize  int64
	OrderTickSize  int64
	MinOrderSize   int64
	MaxTokenDeposits int64
	MaxTokenBorrows  int64

	HistoricalOracleData HistoricalOracleData
	HistoricalIndexData  HistoricalOracleData

	FlashLoanAmount             int64
	FlashLoanInitialTokenAmount int64

	TotalSpotFee  int64
	TotalSwapFee  int64
	PausedOperations PausedOperation
}
