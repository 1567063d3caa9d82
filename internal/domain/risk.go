package domain

// Position is one borrower's exposure within one market. USD amounts are
// raw as fetched; the risk analyzer scales them by the vault's share of the
// market before aggregating.
type Position struct {
	ID            string   `json:"id"`
	UserAddress   string   `json:"userAddress"`
	MarketKey     string   `json:"marketKey"`
	MarketLabel   string   `json:"marketLabel"`
	Lltv          *float64 `json:"lltv"`
	HealthFactor  *float64 `json:"healthFactor"`
	BorrowUsd     float64  `json:"borrowUsd"`
	CollateralUsd float64  `json:"collateralUsd"`
	MarginUsd     float64  `json:"marginUsd"`
}

// LiquidationIncident is one liquidation transaction. USD amounts are raw
// as fetched; the analyzer scales them by the vault's historical share of
// the market at the incident's timestamp.
type LiquidationIncident struct {
	ID          string  `json:"id"`
	Timestamp   int64   `json:"timestamp"`
	Hash        string  `json:"hash"`
	MarketKey   string  `json:"marketKey"`
	MarketLabel string  `json:"marketLabel"`
	RepaidUsd   float64 `json:"repaidUsd"`
	SeizedUsd   float64 `json:"seizedUsd"`
	BadDebtUsd  float64 `json:"badDebtUsd"`
}

// CollateralAtRiskPoint is one point on a market's price-stress curve:
// the USD value of collateral eligible for liquidation if the collateral
// price dropped to Ratio of its current value.
type CollateralAtRiskPoint struct {
	Ratio         float64 `json:"collateralPriceRatio"`
	CollateralUsd float64 `json:"collateralUsd"`
}

// CollateralAtRiskSeries is the stress curve for one market.
type CollateralAtRiskSeries struct {
	MarketKey string                  `json:"marketKey"`
	Label     string                  `json:"label"`
	Points    []CollateralAtRiskPoint `json:"points"`
}

// Scorecard holds the headline risk metrics. Nil means "undefined due to a
// zero denominator", which is distinct from a computed zero.
type Scorecard struct {
	WeightedLltv                   *float64 `json:"weightedLltv"`
	WeightedBorrowLtv              *float64 `json:"weightedBorrowLtv"`
	LltvHeadroom                   *float64 `json:"lltvHeadroom"`
	CollateralCoverageRatio        *float64 `json:"collateralCoverageRatio"`
	LiquidityCoverage              *float64 `json:"liquidityCoverage"`
	TopMarketConcentration         float64  `json:"topMarketConcentration"`
	ConcentrationHhi               float64  `json:"concentrationHhi"`
	NearLiquidationBorrowUsd       float64  `json:"nearLiquidationBorrowUsd"`
	StressCollateralAtRisk15PctUsd float64  `json:"stressCollateralAtRisk15PctUsd"`
	TotalBorrowUsd                 float64  `json:"totalBorrowUsd"`
	TotalCollateralUsd             float64  `json:"totalCollateralUsd"`
	ActiveBorrowers                int      `json:"activeBorrowers"`
	ActivePositions                int      `json:"activePositions"`
}

// HealthBucket is one band of the borrower health distribution.
type HealthBucket struct {
	Label         string  `json:"label"`
	BorrowerCount int     `json:"borrowerCount"`
	BorrowUsd     float64 `json:"borrowUsd"`
	ShareOfBorrow float64 `json:"shareOfBorrow"`
}

// LiquidationSummary aggregates scaled incidents within a lookback window.
type LiquidationSummary struct {
	WindowDays    int     `json:"windowDays"`
	IncidentCount int     `json:"incidentCount"`
	RepaidUsd     float64 `json:"repaidUsd"`
	SeizedUsd     float64 `json:"seizedUsd"`
	BadDebtUsd    float64 `json:"badDebtUsd"`
}

// RiskAnalysis is the full derived risk output, recomputed fresh on every
// build; it is a pure function of the fetched inputs.
type RiskAnalysis struct {
	Scorecard              Scorecard             `json:"scorecard"`
	HealthBuckets          []HealthBucket        `json:"healthBuckets"`
	LiquidationSummary30d  LiquidationSummary    `json:"liquidationSummary30d"`
	LiquidationSummary90d  LiquidationSummary    `json:"liquidationSummary90d"`
	RecentLiquidations     []LiquidationIncident `json:"recentLiquidations"`
	MethodologyNotes       []string              `json:"methodologyNotes"`
}
