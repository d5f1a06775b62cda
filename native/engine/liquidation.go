package engine

import (
	coreerrors "novaperp/core/errors"
	"novaperp/core/oracle"
	"novaperp/core/types"
	"novaperp/native/liquidation"
	"novaperp/native/margin"
)

// liquidationContext computes spec §4.H's margin shortage for victim at the
// Liquidation tier and stamps the engine's clock/liquidation id onto the
// resulting Context.
func (e *Engine) liquidationContext(victim *types.User) (liquidation.Context, error) {
	shortage, err := e.liquidationShortage(victim)
	if err != nil {
		return liquidation.Context{}, err
	}
	return liquidation.Context{
		Now:               e.Clock.Now,
		Slot:              e.Clock.Slot,
		LiquidationId:     victim.NextLiquidationId,
		Shortage:          shortage,
		RecomputeShortage: func() (int64, error) { return e.liquidationShortage(victim) },
	}, nil
}

// liquidationShortage computes spec §4.H's margin shortage for victim at the
// Liquidation tier: MarginRequirementPlusBuffer minus TotalCollateral, zero
// or negative once no shortage remains.
func (e *Engine) liquidationShortage(victim *types.User) (int64, error) {
	calc, err := margin.Calculate(victim, e.PerpMarkets, e.SpotMarkets, e.Oracles, types.MarginTierLiquidation, e.Config.LiquidationBufferBps)
	if err != nil {
		return 0, mapError(err)
	}
	return calc.MarginRequirementPlusBuffer - calc.TotalCollateral, nil
}

// postLiquidationCheck implements spec §4.H's post-step bookkeeping: flag
// Bankrupt if total collateral went negative, else try to clear
// BeingLiquidated once collateral clears maintenance plus buffer.
func (e *Engine) postLiquidationCheck(u *types.User) error {
	calc, err := margin.Calculate(u, e.PerpMarkets, e.SpotMarkets, e.Oracles, types.MarginTierMaintenance, 0)
	if err != nil {
		return mapError(err)
	}
	if calc.TotalCollateral < 0 {
		u.Status |= types.UserStatusBankrupt
		return nil
	}
	liquidation.ExitLiquidation(u, calc.TotalCollateral, calc.MarginRequirement)
	return nil
}

// LiquidatePerp implements liquidate_perp, spec §6.
func (e *Engine) LiquidatePerp(victim, liquidator *types.User, marketIndex uint16, maxBaseAmount int64) (liquidation.PerpResult, error) {
	market, err := e.PerpMarkets.GetRefMut(marketIndex)
	if err != nil {
		return liquidation.PerpResult{}, mapError(err)
	}
	victimPos, err := victim.GetPerpPosition(marketIndex)
	if err != nil {
		return liquidation.PerpResult{}, mapError(err)
	}
	liquidatorPos, err := liquidator.GetPerpPosition(marketIndex)
	if err != nil {
		return liquidation.PerpResult{}, mapError(err)
	}
	oracleKey := oracle.Key{Pubkey: market.OracleId}
	entry, ok := e.Oracles.Get(oracleKey)
	if !ok {
		return liquidation.PerpResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for market")
	}

	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return liquidation.PerpResult{}, err
	}

	result, err := liquidation.LiquidatePerp(market, victim, victimPos, liquidator, liquidatorPos, maxBaseAmount, entry.Price, ctx, e.Emit)
	if err != nil {
		return result, mapError(err)
	}
	if err := e.postLiquidationCheck(victim); err != nil {
		return result, err
	}
	return result, nil
}

// LiquidateSpot implements liquidate_spot, spec §6.
func (e *Engine) LiquidateSpot(victim, liquidator *types.User, assetMarketIndex, liabilityMarketIndex uint16, maxLiabilityAmount int64) (liquidation.SpotResult, error) {
	assetMarket, err := e.SpotMarkets.GetRefMut(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liabilityMarket, err := e.SpotMarkets.GetRefMut(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimAsset, err := victim.GetSpotPosition(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimLiability, err := victim.GetSpotPosition(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liquidatorAsset, err := liquidator.GetSpotPosition(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liquidatorLiability, err := liquidator.GetSpotPosition(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}

	assetEntry, ok := e.Oracles.Get(oracle.Key{Pubkey: assetMarket.OracleId})
	if !ok {
		return liquidation.SpotResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for asset market")
	}
	liabilityEntry, ok := e.Oracles.Get(oracle.Key{Pubkey: liabilityMarket.OracleId})
	if !ok {
		return liquidation.SpotResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for liability market")
	}

	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return liquidation.SpotResult{}, err
	}

	result, err := liquidation.LiquidateSpot(assetMarket, liabilityMarket, victim, victimAsset, victimLiability, liquidator, liquidatorAsset, liquidatorLiability, *assetEntry, *liabilityEntry, maxLiabilityAmount, ctx, e.Emit)
	if err != nil {
		return result, mapError(err)
	}
	if err := e.postLiquidationCheck(victim); err != nil {
		return result, err
	}
	return result, nil
}

// LiquidateBorrowForPerpPnl implements liquidate_borrow_for_perp_pnl, spec §6.
func (e *Engine) LiquidateBorrowForPerpPnl(victim, liquidator *types.User, perpMarketIndex uint16, liabilityMarketIndex uint16, maxLiabilityAmount int64) (liquidation.SpotResult, error) {
	perpMarket, err := e.PerpMarkets.GetRefMut(perpMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liabilityMarket, err := e.SpotMarkets.GetRefMut(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimPerpPos, err := victim.GetPerpPosition(perpMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimLiability, err := victim.GetSpotPosition(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liquidatorPerpPos, err := liquidator.GetPerpPosition(perpMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liquidatorLiability, err := liquidator.GetSpotPosition(liabilityMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	entry, ok := e.Oracles.Get(oracle.Key{Pubkey: perpMarket.OracleId})
	if !ok {
		return liquidation.SpotResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for market")
	}
	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return liquidation.SpotResult{}, err
	}
	result, err := liquidation.LiquidateBorrowForPerpPnl(perpMarket, liabilityMarket, victim, victimPerpPos, victimLiability, liquidator, liquidatorPerpPos, liquidatorLiability, entry.Price, maxLiabilityAmount, ctx, e.Emit)
	if err != nil {
		return result, mapError(err)
	}
	if err := e.postLiquidationCheck(victim); err != nil {
		return result, err
	}
	return result, nil
}

// LiquidatePerpPnlForDeposit implements liquidate_perp_pnl_for_deposit, spec §6.
func (e *Engine) LiquidatePerpPnlForDeposit(victim, liquidator *types.User, perpMarketIndex uint16, assetMarketIndex uint16, maxPnl int64) (liquidation.SpotResult, error) {
	perpMarket, err := e.PerpMarkets.GetRefMut(perpMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	assetMarket, err := e.SpotMarkets.GetRefMut(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimPerpPos, err := victim.GetPerpPosition(perpMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	victimAsset, err := victim.GetSpotPosition(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	liquidatorAsset, err := liquidator.GetSpotPosition(assetMarketIndex)
	if err != nil {
		return liquidation.SpotResult{}, mapError(err)
	}
	entry, ok := e.Oracles.Get(oracle.Key{Pubkey: perpMarket.OracleId})
	if !ok {
		return liquidation.SpotResult{}, coreerrors.New(coreerrors.CodeOracleNotFound, "no oracle loaded for market")
	}
	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return liquidation.SpotResult{}, err
	}
	result, err := liquidation.LiquidatePerpPnlForDeposit(perpMarket, assetMarket, victim, victimPerpPos, victimAsset, liquidator, liquidatorAsset, entry.Price, maxPnl, ctx, e.Emit)
	if err != nil {
		return result, mapError(err)
	}
	if err := e.postLiquidationCheck(victim); err != nil {
		return result, err
	}
	return result, nil
}

// ResolvePerpBankruptcy implements resolve_perp_bankruptcy, spec §6.
// clawback is optional (pass nil) to skip straight to full socialization;
// its position in marketIndex is the one debited.
func (e *Engine) ResolvePerpBankruptcy(victim *types.User, marketIndex uint16, clawback *types.User) (int64, error) {
	market, err := e.PerpMarkets.GetRefMut(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	victimPos, err := victim.GetPerpPosition(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}

	var clawbackPos *types.PerpPosition
	var clawbackAuthority string
	if clawback != nil {
		clawbackPos, err = clawback.GetPerpPosition(marketIndex)
		if err != nil {
			return 0, mapError(err)
		}
		clawbackAuthority = clawback.Authority
	}

	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return 0, err
	}
	loss, err := liquidation.ResolvePerpBankruptcy(market, victim, victimPos, clawbackPos, clawbackAuthority, ctx, e.Emit)
	if err != nil {
		return 0, mapError(err)
	}
	return loss, nil
}

// ResolveSpotBankruptcy implements resolve_spot_bankruptcy, spec §6.
func (e *Engine) ResolveSpotBankruptcy(victim *types.User, marketIndex uint16) (int64, error) {
	market, err := e.SpotMarkets.GetRefMut(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	victimLiability, err := victim.GetSpotPosition(marketIndex)
	if err != nil {
		return 0, mapError(err)
	}
	ctx, err := e.liquidationContext(victim)
	if err != nil {
		return 0, err
	}
	loss, err := liquidation.ResolveSpotBankruptcy(market, victim, victimLiability, ctx, e.Emit)
	if err != nil {
		return 0, mapError(err)
	}
	return loss, nil
}
