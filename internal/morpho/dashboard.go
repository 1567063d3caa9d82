package morpho

import (
	"context"
	"fmt"
	"sort"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/numeric"
	"vault-risk-lab/internal/series"
)

// Window is the timestamp window of a dashboard fetch. Chart series span
// [Start, End] at Interval; the risk series span [RiskStart, RiskEnd] at
// daily resolution regardless of the chart range.
type Window struct {
	Start     int64
	End       int64
	Interval  domain.Interval
	RiskStart int64
	RiskEnd   int64
}

// Dashboard is the mapped result of the main vault query: the snapshot, the
// allocation rows and the raw historical series the read-model builder
// derives its chart series from.
type Dashboard struct {
	Snapshot    domain.Snapshot
	Allocations []domain.AllocationRow

	// AllocationHistory maps market key to the vault's historical USD
	// allocation to that market; MarketSupplyHistory maps market key to the
	// market's total supply history. Both feed historical share estimates.
	AllocationHistory   map[string][]domain.Point
	MarketSupplyHistory map[string][]domain.Point

	SharePriceSeries []domain.Point
	NetApySeries     []domain.Point
	SupplySeries     []domain.Point
}

// RiskMarketKeys returns the keys of the markets that carry borrower risk:
// funded, non-idle allocations.
func (d *Dashboard) RiskMarketKeys() []string {
	keys := make([]string, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		if a.AllocationUsd > 0 && !a.IsIdle() {
			keys = append(keys, a.MarketKey)
		}
	}
	return keys
}

// FetchDashboard executes the main vault query and maps the response.
// Returns ErrVaultNotFound when the address resolves to no vault.
func FetchDashboard(ctx context.Context, q Querier, address string, chainID int, window Window) (*Dashboard, error) {
	var resp vaultDashboardResponse
	err := q.Query(ctx, vaultDashboardQuery, map[string]any{
		"address":            address,
		"chainId":            chainID,
		"startTimestamp":     window.Start,
		"endTimestamp":       window.End,
		"interval":           string(window.Interval),
		"riskStartTimestamp": window.RiskStart,
		"riskEndTimestamp":   window.RiskEnd,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("vault dashboard query: %w", err)
	}

	vault := resp.VaultByAddress
	if vault == nil {
		return nil, ErrVaultNotFound
	}

	totalAssetsUsd := numeric.ToFinite(vault.State.TotalAssetsUsd)

	allocationHistory := make(map[string][]domain.Point, len(vault.HistoricalState.Allocation))
	for _, row := range vault.HistoricalState.Allocation {
		allocationHistory[row.Market.UniqueKey] = series.Normalize(toPoints(row.SupplyAssetsUsd))
	}

	marketSupplyHistory := make(map[string][]domain.Point, len(vault.State.Allocation))
	allocations := make([]domain.AllocationRow, 0, len(vault.State.Allocation))
	for _, allocation := range vault.State.Allocation {
		market := allocation.Market
		marketSupplyHistory[market.UniqueKey] = series.Normalize(toPoints(market.HistoricalState.SupplyAssetsUsd))

		allocationUsd := numeric.ToFinite(allocation.SupplyAssetsUsd)
		allocationPct := 0.0
		if totalAssetsUsd != 0 {
			allocationPct = allocationUsd / totalAssetsUsd
		}

		collateralSymbol := domain.IdleCollateralSymbol
		if market.CollateralAsset != nil {
			collateralSymbol = market.CollateralAsset.Symbol
		}

		marketNetApy := market.State.SupplyApy
		if market.State.NetSupplyApy != nil {
			marketNetApy = *market.State.NetSupplyApy
		}

		allocations = append(allocations, domain.AllocationRow{
			MarketKey:            market.UniqueKey,
			CollateralSymbol:     collateralSymbol,
			LoanSymbol:           market.LoanAsset.Symbol,
			AllocationUsd:        allocationUsd,
			AllocationPct:        allocationPct,
			Lltv:                 numeric.ParseRatio(market.Lltv),
			MarketTotalSupplyUsd: numeric.ToFinite(market.State.SupplyAssetsUsd),
			MarketLiquidityUsd:   numeric.ToFinite(market.State.LiquidityAssetsUsd),
			MarketUtilization:    numeric.ToFinite(market.State.Utilization),
			MarketNetApy:         numeric.ToFinite(marketNetApy),
			UtilizationHistory:   series.Normalize(toPoints(market.HistoricalState.UtilizationRange)),
		})
	}
	sort.SliceStable(allocations, func(i, j int) bool {
		return allocations[i].AllocationUsd > allocations[j].AllocationUsd
	})

	var liquidityUsd float64
	if vault.Liquidity != nil {
		liquidityUsd = numeric.ToFinite(vault.Liquidity.Usd)
	}

	snapshot := domain.Snapshot{
		Name:           vault.Name,
		Symbol:         vault.Symbol,
		Address:        vault.Address,
		ChainID:        vault.Chain.ID,
		ChainNetwork:   vault.Chain.Network,
		TotalAssetsUsd: totalAssetsUsd,
		NetApy:         numeric.ToFinite(vault.State.NetApy),
		PerformanceFee: numeric.ToFinite(vault.State.Fee),
		LiquidityUsd:   liquidityUsd,
		AsOfTimestamp:  int64(numeric.ToFinite(vault.State.Timestamp)),
	}

	return &Dashboard{
		Snapshot:            snapshot,
		Allocations:         allocations,
		AllocationHistory:   allocationHistory,
		MarketSupplyHistory: marketSupplyHistory,
		SharePriceSeries:    toPoints(vault.HistoricalState.SharePriceUsd),
		NetApySeries:        series.Normalize(toPoints(vault.HistoricalState.NetApy)),
		SupplySeries:        series.Normalize(toPoints(vault.HistoricalState.TotalAssetsUsd)),
	}, nil
}
