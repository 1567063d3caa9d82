package morpho

import (
	"vault-risk-lab/internal/domain"
)

// Wire shapes for the GraphQL responses. Fields the API may send as either
// a number or a string (timestamps, lltv) are decoded as any and coerced by
// the numeric package.

type wirePoint struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

type wireAsset struct {
	Symbol string `json:"symbol"`
}

type wireMarketState struct {
	Utilization        float64  `json:"utilization"`
	LiquidityAssetsUsd *float64 `json:"liquidityAssetsUsd"`
	SupplyAssetsUsd    *float64 `json:"supplyAssetsUsd"`
	NetSupplyApy       *float64 `json:"netSupplyApy"`
	SupplyApy          float64  `json:"supplyApy"`
}

type wireMarketHistory struct {
	UtilizationRange []wirePoint `json:"utilizationRange"`
	SupplyAssetsUsd  []wirePoint `json:"supplyAssetsUsd"`
}

type wireMarket struct {
	UniqueKey       string            `json:"uniqueKey"`
	Lltv            any               `json:"lltv"`
	LoanAsset       wireAsset         `json:"loanAsset"`
	CollateralAsset *wireAsset        `json:"collateralAsset"`
	State           wireMarketState   `json:"state"`
	HistoricalState wireMarketHistory `json:"historicalState"`
}

type wireAllocation struct {
	SupplyAssetsUsd *float64   `json:"supplyAssetsUsd"`
	Market          wireMarket `json:"market"`
}

type wireVaultState struct {
	Timestamp      any              `json:"timestamp"`
	TotalAssetsUsd *float64         `json:"totalAssetsUsd"`
	NetApy         float64          `json:"netApy"`
	Fee            float64          `json:"fee"`
	Allocation     []wireAllocation `json:"allocation"`
}

type wireAllocationHistoryRow struct {
	Market struct {
		UniqueKey string `json:"uniqueKey"`
	} `json:"market"`
	SupplyAssetsUsd []wirePoint `json:"supplyAssetsUsd"`
}

type wireVaultHistory struct {
	Allocation     []wireAllocationHistoryRow `json:"allocation"`
	SharePriceUsd  []wirePoint                `json:"sharePriceUsd"`
	NetApy         []wirePoint                `json:"netApy"`
	TotalAssetsUsd []wirePoint                `json:"totalAssetsUsd"`
}

type wireVault struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Chain   struct {
		ID      int    `json:"id"`
		Network string `json:"network"`
	} `json:"chain"`
	State     wireVaultState `json:"state"`
	Liquidity *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	HistoricalState wireVaultHistory `json:"historicalState"`
}

type vaultDashboardResponse struct {
	VaultByAddress *wireVault `json:"vaultByAddress"`
}

type wireCurvePoint struct {
	CollateralPriceRatio any `json:"collateralPriceRatio"`
	CollateralUsd        any `json:"collateralUsd"`
}

type wireCurveMarket struct {
	UniqueKey       string     `json:"uniqueKey"`
	LoanAsset       wireAsset  `json:"loanAsset"`
	CollateralAsset *wireAsset `json:"collateralAsset"`
}

type collateralAtRiskResponse struct {
	MarketCollateralAtRisk struct {
		Market           wireCurveMarket  `json:"market"`
		CollateralAtRisk []wireCurvePoint `json:"collateralAtRisk"`
	} `json:"marketCollateralAtRisk"`
}

type wirePageInfo struct {
	Count      int `json:"count"`
	CountTotal int `json:"countTotal"`
}

type wirePositionMarket struct {
	UniqueKey       string     `json:"uniqueKey"`
	Lltv            any        `json:"lltv"`
	LoanAsset       wireAsset  `json:"loanAsset"`
	CollateralAsset *wireAsset `json:"collateralAsset"`
}

type wirePositionUser struct {
	Address string `json:"address"`
}

type wirePositionState struct {
	BorrowAssetsUsd *float64 `json:"borrowAssetsUsd"`
	CollateralUsd   *float64 `json:"collateralUsd"`
	MarginUsd       *float64 `json:"marginUsd"`
}

type positionWireItem struct {
	ID           string             `json:"id"`
	HealthFactor *float64           `json:"healthFactor"`
	User         *wirePositionUser  `json:"user"`
	Market       wirePositionMarket `json:"market"`
	State        *wirePositionState `json:"state"`
}

type marketPositionsResponse struct {
	MarketPositions struct {
		Items    []positionWireItem `json:"items"`
		PageInfo wirePageInfo       `json:"pageInfo"`
	} `json:"marketPositions"`
}

type wireLiquidationMarket struct {
	UniqueKey       string     `json:"uniqueKey"`
	LoanAsset       wireAsset  `json:"loanAsset"`
	CollateralAsset *wireAsset `json:"collateralAsset"`
}

type wireLiquidationData struct {
	RepaidAssetsUsd  *float64              `json:"repaidAssetsUsd"`
	SeizedAssetsUsd  *float64              `json:"seizedAssetsUsd"`
	BadDebtAssetsUsd *float64              `json:"badDebtAssetsUsd"`
	Market           wireLiquidationMarket `json:"market"`
}

type liquidationWireItem struct {
	ID        string               `json:"id"`
	Timestamp any                  `json:"timestamp"`
	Hash      string               `json:"hash"`
	Data      *wireLiquidationData `json:"data"`
}

type liquidationsResponse struct {
	Transactions struct {
		Items    []liquidationWireItem `json:"items"`
		PageInfo wirePageInfo          `json:"pageInfo"`
	} `json:"transactions"`
}

// marketLabel renders "COLLATERAL/LOAN", with the idle placeholder when the
// market has no collateral asset.
func marketLabel(collateral *wireAsset, loan wireAsset) string {
	symbol := domain.IdleCollateralSymbol
	if collateral != nil {
		symbol = collateral.Symbol
	}
	return symbol + "/" + loan.Symbol
}

// toPoints converts wire points into a domain series, copying Y values so
// the decoded response can be released.
func toPoints(points []wirePoint) []domain.Point {
	out := make([]domain.Point, 0, len(points))
	for _, p := range points {
		if p.Y == nil {
			out = append(out, domain.Gap(int64(p.X)))
			continue
		}
		out = append(out, domain.Value(int64(p.X), *p.Y))
	}
	return out
}
