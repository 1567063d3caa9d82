// Package risk derives the vault risk analysis from fetched positions,
// liquidations and stress curves. All market-level USD exposures are scaled
// by the vault's share of the market before aggregation, so the output
// reflects the vault's slice of borrower risk rather than the whole market's.
package risk

import (
	"math"
	"sort"

	"vault-risk-lab/internal/domain"
)

// Analysis thresholds.
const (
	// StressCollateralRatio is the price shock evaluated for the stress
	// metric: collateral prices at 85% of current, a 15% drawdown.
	StressCollateralRatio = 0.85

	// Near-liquidation triggers: health factor at or below 1.10, or LTV at
	// or above 90% of the market LLTV.
	nearLiquidationHF         = 1.1
	nearLiquidationLltvFactor = 0.9

	// LiquidationLookbackDays bounds the liquidation history fetch.
	LiquidationLookbackDays = 90

	recentLiquidationLimit = 20
)

// ShareAtFunc resolves the vault's share of a market at a timestamp.
type ShareAtFunc func(marketKey string, timestamp int64) float64

// Inputs carries everything Compute needs. CurrentShare scales present-day
// position exposures; ShareAt scales each liquidation at its own timestamp.
type Inputs struct {
	Snapshot         domain.Snapshot
	Allocations      []domain.AllocationRow
	CollateralAtRisk []domain.CollateralAtRiskSeries
	Positions        []domain.Position
	Liquidations     []domain.LiquidationIncident
	CurrentShare     map[string]float64
	ShareAt          ShareAtFunc

	// Now is the fallback reference time when the snapshot carries no
	// timestamp.
	Now int64
}

type borrowerRisk struct {
	borrowUsd       float64
	minHealthFactor *float64
}

// Compute produces the full risk analysis. It is a pure function of its
// inputs and never mutates them.
func Compute(in Inputs) domain.RiskAnalysis {
	scaledPositions := make([]domain.Position, len(in.Positions))
	for i, p := range in.Positions {
		share := in.CurrentShare[p.MarketKey]
		p.BorrowUsd *= share
		p.CollateralUsd *= share
		p.MarginUsd *= share
		scaledPositions[i] = p
	}

	scaledLiquidations := make([]domain.LiquidationIncident, len(in.Liquidations))
	for i, incident := range in.Liquidations {
		share := 0.0
		if in.ShareAt != nil {
			share = in.ShareAt(incident.MarketKey, incident.Timestamp)
		}
		incident.RepaidUsd *= share
		incident.SeizedUsd *= share
		incident.BadDebtUsd *= share
		scaledLiquidations[i] = incident
	}

	// Allocation-weighted LLTV over funded, LLTV-bearing, non-idle markets.
	var lltvNumerator, lltvDenominator float64
	for _, a := range in.Allocations {
		if a.AllocationUsd <= 0 || a.Lltv == nil || *a.Lltv <= 0 || a.IsIdle() {
			continue
		}
		lltvNumerator += a.AllocationUsd * *a.Lltv
		lltvDenominator += a.AllocationUsd
	}
	var weightedLltv *float64
	if lltvDenominator > 0 {
		weightedLltv = ptr(lltvNumerator / lltvDenominator)
	}

	var totalBorrowUsd, totalCollateralUsd float64
	for _, p := range scaledPositions {
		totalBorrowUsd += p.BorrowUsd
		totalCollateralUsd += p.CollateralUsd
	}

	var weightedBorrowLtv *float64
	if totalCollateralUsd > 0 {
		weightedBorrowLtv = ptr(totalBorrowUsd / totalCollateralUsd)
	}

	var lltvHeadroom *float64
	if weightedLltv != nil && weightedBorrowLtv != nil {
		lltvHeadroom = ptr(*weightedLltv - *weightedBorrowLtv)
	}

	var collateralCoverageRatio *float64
	if totalBorrowUsd > 0 {
		collateralCoverageRatio = ptr(totalCollateralUsd / totalBorrowUsd)
	}

	var liquidityCoverage *float64
	if in.Snapshot.TotalAssetsUsd > 0 {
		liquidityCoverage = ptr(in.Snapshot.LiquidityUsd / in.Snapshot.TotalAssetsUsd)
	}

	var topMarketConcentration, concentrationHhi float64
	for _, a := range in.Allocations {
		topMarketConcentration = math.Max(topMarketConcentration, a.AllocationPct)
		concentrationHhi += a.AllocationPct * a.AllocationPct
	}

	var nearLiquidationBorrowUsd float64
	for _, p := range scaledPositions {
		if p.BorrowUsd <= 0 {
			continue
		}

		hfTriggered := p.HealthFactor != nil && *p.HealthFactor <= nearLiquidationHF

		lltvTriggered := false
		if p.CollateralUsd > 0 && p.Lltv != nil && *p.Lltv > 0 {
			positionLtv := p.BorrowUsd / p.CollateralUsd
			lltvTriggered = positionLtv >= *p.Lltv*nearLiquidationLltvFactor
		}

		if hfTriggered || lltvTriggered {
			nearLiquidationBorrowUsd += p.BorrowUsd
		}
	}

	allocationByMarket := make(map[string]domain.AllocationRow, len(in.Allocations))
	for _, a := range in.Allocations {
		allocationByMarket[a.MarketKey] = a
	}

	var stressCollateralAtRiskUsd float64
	for _, curve := range in.CollateralAtRisk {
		if _, ok := allocationByMarket[curve.MarketKey]; !ok {
			continue
		}
		collateralUsd := interpolateCollateralUsdAtRatio(curve.Points, StressCollateralRatio)
		if collateralUsd == nil {
			continue
		}
		share := in.CurrentShare[curve.MarketKey]
		if share <= 0 {
			continue
		}
		stressCollateralAtRiskUsd += *collateralUsd * share
	}

	// Borrowers aggregate across positions: total scaled borrow plus the
	// worst health factor seen on any of their positions.
	borrowers := make(map[string]*borrowerRisk)
	for _, p := range scaledPositions {
		b := borrowers[p.UserAddress]
		if b == nil {
			b = &borrowerRisk{}
			borrowers[p.UserAddress] = b
		}
		b.borrowUsd += p.BorrowUsd
		if p.HealthFactor != nil {
			if b.minHealthFactor == nil || *p.HealthFactor < *b.minHealthFactor {
				b.minHealthFactor = ptr(*p.HealthFactor)
			}
		}
	}

	healthBuckets := bucketBorrowers(borrowers, totalBorrowUsd)

	var activeBorrowers int
	for _, b := range borrowers {
		if b.borrowUsd > 0 {
			activeBorrowers++
		}
	}
	var activePositions int
	for _, p := range scaledPositions {
		if p.BorrowUsd > 0 {
			activePositions++
		}
	}

	now := in.Snapshot.AsOfTimestamp
	if now <= 0 {
		now = in.Now
	}

	recent := scaledLiquidations
	if len(recent) > recentLiquidationLimit {
		recent = recent[:recentLiquidationLimit]
	}

	return domain.RiskAnalysis{
		Scorecard: domain.Scorecard{
			WeightedLltv:                   weightedLltv,
			WeightedBorrowLtv:              weightedBorrowLtv,
			LltvHeadroom:                   lltvHeadroom,
			CollateralCoverageRatio:        collateralCoverageRatio,
			LiquidityCoverage:              liquidityCoverage,
			TopMarketConcentration:         topMarketConcentration,
			ConcentrationHhi:               concentrationHhi,
			NearLiquidationBorrowUsd:       nearLiquidationBorrowUsd,
			StressCollateralAtRisk15PctUsd: stressCollateralAtRiskUsd,
			TotalBorrowUsd:                 totalBorrowUsd,
			TotalCollateralUsd:             totalCollateralUsd,
			ActiveBorrowers:                activeBorrowers,
			ActivePositions:                activePositions,
		},
		HealthBuckets:         healthBuckets,
		LiquidationSummary30d: summarizeLiquidations(scaledLiquidations, now, 30),
		LiquidationSummary90d: summarizeLiquidations(scaledLiquidations, now, 90),
		RecentLiquidations:    recent,
		MethodologyNotes: []string{
			"Borrower buckets use Morpho market position health factors.",
			"Near-liquidation exposure uses HF <= 1.10 or LTV >= 90% of market LLTV.",
			"Borrower exposures use current vault share of each underlying market.",
			"Liquidation exposures use timestamp-aligned vault share estimates from vault allocation history and market supply history.",
			"Stress collateral-at-risk scales market collateral-at-risk by vault share of each market.",
			"Utilization chart uses historical vault allocation weights at each timestamp.",
		},
	}
}

// bucketDefinitions classify a borrower by their worst health factor.
// First match wins; an unmatched borrower lands in the first bucket.
var bucketDefinitions = []struct {
	label string
	test  func(hf *float64) bool
}{
	{"Critical (HF <= 1.05)", func(hf *float64) bool { return hf != nil && *hf <= 1.05 }},
	{"Elevated (1.05 < HF <= 1.20)", func(hf *float64) bool { return hf != nil && *hf > 1.05 && *hf <= 1.2 }},
	{"Watch (1.20 < HF <= 1.50)", func(hf *float64) bool { return hf != nil && *hf > 1.2 && *hf <= 1.5 }},
	{"Healthy (HF > 1.50)", func(hf *float64) bool { return hf != nil && *hf > 1.5 }},
	{"Unscored", func(hf *float64) bool { return hf == nil }},
}

func bucketBorrowers(borrowers map[string]*borrowerRisk, totalBorrowUsd float64) []domain.HealthBucket {
	type mutableBucket struct {
		borrowUsd float64
		addresses map[string]struct{}
	}
	buckets := make([]mutableBucket, len(bucketDefinitions))
	for i := range buckets {
		buckets[i].addresses = make(map[string]struct{})
	}

	// Stable iteration keeps the borrow sums deterministic.
	addresses := make([]string, 0, len(borrowers))
	for address := range borrowers {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	for _, address := range addresses {
		b := borrowers[address]
		idx := 0
		for i, def := range bucketDefinitions {
			if def.test(b.minHealthFactor) {
				idx = i
				break
			}
		}
		buckets[idx].borrowUsd += b.borrowUsd
		buckets[idx].addresses[address] = struct{}{}
	}

	out := make([]domain.HealthBucket, len(bucketDefinitions))
	for i, def := range bucketDefinitions {
		share := 0.0
		if totalBorrowUsd > 0 {
			share = buckets[i].borrowUsd / totalBorrowUsd
		}
		out[i] = domain.HealthBucket{
			Label:         def.label,
			BorrowerCount: len(buckets[i].addresses),
			BorrowUsd:     buckets[i].borrowUsd,
			ShareOfBorrow: share,
		}
	}
	return out
}

// interpolateCollateralUsdAtRatio reads the stress curve at targetRatio,
// interpolating linearly between surrounding points and clamping to the
// curve's endpoints outside its domain. Nil for an empty curve.
func interpolateCollateralUsdAtRatio(points []domain.CollateralAtRiskPoint, targetRatio float64) *float64 {
	if len(points) == 0 {
		return nil
	}

	sorted := make([]domain.CollateralAtRiskPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ratio < sorted[j].Ratio })

	first, last := sorted[0], sorted[len(sorted)-1]
	if targetRatio <= first.Ratio {
		return ptr(first.CollateralUsd)
	}
	if targetRatio >= last.Ratio {
		return ptr(last.CollateralUsd)
	}

	for i := 0; i < len(sorted)-1; i++ {
		lower, upper := sorted[i], sorted[i+1]
		if targetRatio < lower.Ratio || targetRatio > upper.Ratio {
			continue
		}
		ratioDelta := upper.Ratio - lower.Ratio
		if ratioDelta == 0 {
			return ptr(lower.CollateralUsd)
		}
		weight := (targetRatio - lower.Ratio) / ratioDelta
		return ptr(lower.CollateralUsd + (upper.CollateralUsd-lower.CollateralUsd)*weight)
	}

	return nil
}

func summarizeLiquidations(incidents []domain.LiquidationIncident, now int64, windowDays int) domain.LiquidationSummary {
	lowerBound := now - int64(windowDays)*24*60*60
	summary := domain.LiquidationSummary{WindowDays: windowDays}
	for _, incident := range incidents {
		if incident.Timestamp < lowerBound {
			continue
		}
		summary.IncidentCount++
		summary.RepaidUsd += incident.RepaidUsd
		summary.SeizedUsd += incident.SeizedUsd
		summary.BadDebtUsd += incident.BadDebtUsd
	}
	return summary
}

func ptr(f float64) *float64 {
	return &f
}
