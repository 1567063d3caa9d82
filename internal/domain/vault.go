package domain

// IdleCollateralSymbol labels allocation to a market with no collateral
// asset, i.e. the vault's uninvested residual.
const IdleCollateralSymbol = "Idle"

// Snapshot is the point-in-time state of a vault. It is immutable once
// fetched; one snapshot backs each read-model build.
type Snapshot struct {
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Address        string  `json:"address"`
	ChainID        int     `json:"chainId"`
	ChainNetwork   string  `json:"chainNetwork"`
	TotalAssetsUsd float64 `json:"totalAssetsUsd"`
	NetApy         float64 `json:"netApy"`
	PerformanceFee float64 `json:"performanceFee"`
	LiquidityUsd   float64 `json:"liquidityUsd"`
	AsOfTimestamp  int64   `json:"asOfTimestamp"`
}

// AllocationRow describes the vault's position in one underlying market.
// Lltv is nil for idle or otherwise unparameterized markets.
type AllocationRow struct {
	MarketKey            string   `json:"marketKey"`
	CollateralSymbol     string   `json:"collateralSymbol"`
	LoanSymbol           string   `json:"loanSymbol"`
	AllocationUsd        float64  `json:"allocationUsd"`
	AllocationPct        float64  `json:"allocationPct"`
	Lltv                 *float64 `json:"lltv"`
	MarketTotalSupplyUsd float64  `json:"marketTotalSupplyUsd"`
	MarketLiquidityUsd   float64  `json:"marketLiquidityUsd"`
	MarketUtilization    float64  `json:"marketUtilization"`
	MarketNetApy         float64  `json:"marketNetApy"`
	UtilizationHistory   []Point  `json:"utilizationHistory"`
}

// MarketLabel renders "COLLATERAL/LOAN" for an allocation row.
func (a AllocationRow) MarketLabel() string {
	return a.CollateralSymbol + "/" + a.LoanSymbol
}

// IsIdle reports whether the row is the idle pseudo-market.
func (a AllocationRow) IsIdle() bool {
	return a.CollateralSymbol == IdleCollateralSymbol
}

// ReadModel is the root output of a build: snapshot, allocations, derived
// chart series, stress curves and the risk analysis. It is constructed
// fresh per fetch cycle and never mutated afterwards.
type ReadModel struct {
	Snapshot          Snapshot                `json:"snapshot"`
	Allocations       []AllocationRow         `json:"allocations"`
	PerformanceSeries []Point                 `json:"performanceSeries"`
	NetApySeries      []Point                 `json:"netApySeries"`
	SupplySeries      []Point                 `json:"supplySeries"`
	UtilizationSeries []Point                 `json:"utilizationSeries"`
	CollateralAtRisk  []CollateralAtRiskSeries `json:"collateralAtRisk"`
	Risk              RiskAnalysis            `json:"risk"`
}
