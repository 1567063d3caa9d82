package risk

import (
	"math"
	"testing"

	"vault-risk-lab/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestCompute_Concentration(t *testing.T) {
	out := Compute(Inputs{
		Allocations: []domain.AllocationRow{
			{MarketKey: "m1", AllocationPct: 0.5},
			{MarketKey: "m2", AllocationPct: 0.3},
			{MarketKey: "m3", AllocationPct: 0.2},
		},
	})

	if out.Scorecard.TopMarketConcentration != 0.5 {
		t.Errorf("TopMarketConcentration = %v, want 0.5", out.Scorecard.TopMarketConcentration)
	}
	if math.Abs(out.Scorecard.ConcentrationHhi-0.38) > 1e-12 {
		t.Errorf("ConcentrationHhi = %v, want 0.38", out.Scorecard.ConcentrationHhi)
	}
}

func TestCompute_WeightedLltvExcludesIdleAndUnparameterized(t *testing.T) {
	out := Compute(Inputs{
		Allocations: []domain.AllocationRow{
			{MarketKey: "m1", CollateralSymbol: "WETH", AllocationUsd: 300, Lltv: f(0.8)},
			{MarketKey: "m2", CollateralSymbol: "WBTC", AllocationUsd: 100, Lltv: f(0.4)},
			{MarketKey: "idle", CollateralSymbol: domain.IdleCollateralSymbol, AllocationUsd: 600, Lltv: f(0.9)},
			{MarketKey: "m3", CollateralSymbol: "LINK", AllocationUsd: 200, Lltv: nil},
			{MarketKey: "m4", CollateralSymbol: "UNI", AllocationUsd: 200, Lltv: f(0)},
		},
	})

	// (300*0.8 + 100*0.4) / 400 = 0.7
	if out.Scorecard.WeightedLltv == nil || *out.Scorecard.WeightedLltv != 0.7 {
		t.Errorf("WeightedLltv = %v, want 0.7", out.Scorecard.WeightedLltv)
	}
}

func TestCompute_ScalesPositionsByCurrentShare(t *testing.T) {
	out := Compute(Inputs{
		Positions: []domain.Position{
			{ID: "p1", UserAddress: "a", MarketKey: "m1", BorrowUsd: 1000, CollateralUsd: 2000, HealthFactor: f(2)},
			{ID: "p2", UserAddress: "b", MarketKey: "unheld", BorrowUsd: 500, CollateralUsd: 800, HealthFactor: f(2)},
		},
		CurrentShare: map[string]float64{"m1": 0.25},
	})

	if out.Scorecard.TotalBorrowUsd != 250 {
		t.Errorf("TotalBorrowUsd = %v, want 250", out.Scorecard.TotalBorrowUsd)
	}
	if out.Scorecard.TotalCollateralUsd != 500 {
		t.Errorf("TotalCollateralUsd = %v, want 500", out.Scorecard.TotalCollateralUsd)
	}
	// The market the vault holds no share of contributes nothing.
	if out.Scorecard.ActivePositions != 1 || out.Scorecard.ActiveBorrowers != 1 {
		t.Errorf("active = %d positions / %d borrowers, want 1/1",
			out.Scorecard.ActivePositions, out.Scorecard.ActiveBorrowers)
	}
	if out.Scorecard.WeightedBorrowLtv == nil || *out.Scorecard.WeightedBorrowLtv != 0.5 {
		t.Errorf("WeightedBorrowLtv = %v, want 0.5", out.Scorecard.WeightedBorrowLtv)
	}
	if out.Scorecard.CollateralCoverageRatio == nil || *out.Scorecard.CollateralCoverageRatio != 2 {
		t.Errorf("CollateralCoverageRatio = %v, want 2", out.Scorecard.CollateralCoverageRatio)
	}
}

func TestCompute_UndefinedRatiosAreNil(t *testing.T) {
	out := Compute(Inputs{})

	sc := out.Scorecard
	if sc.WeightedLltv != nil || sc.WeightedBorrowLtv != nil || sc.LltvHeadroom != nil ||
		sc.CollateralCoverageRatio != nil || sc.LiquidityCoverage != nil {
		t.Errorf("empty inputs must yield nil ratios, got %+v", sc)
	}
}

func TestCompute_NearLiquidationTriggers(t *testing.T) {
	share := map[string]float64{"m1": 1}

	out := Compute(Inputs{
		Positions: []domain.Position{
			// HF trigger.
			{ID: "p1", UserAddress: "a", MarketKey: "m1", BorrowUsd: 100, CollateralUsd: 1000, HealthFactor: f(1.1)},
			// LTV trigger: 0.75 >= 0.8*0.9.
			{ID: "p2", UserAddress: "b", MarketKey: "m1", BorrowUsd: 750, CollateralUsd: 1000, Lltv: f(0.8), HealthFactor: f(5)},
			// Neither.
			{ID: "p3", UserAddress: "c", MarketKey: "m1", BorrowUsd: 100, CollateralUsd: 1000, Lltv: f(0.8), HealthFactor: f(5)},
		},
		CurrentShare: share,
	})

	if out.Scorecard.NearLiquidationBorrowUsd != 850 {
		t.Errorf("NearLiquidationBorrowUsd = %v, want 850", out.Scorecard.NearLiquidationBorrowUsd)
	}
}

func TestCompute_StressCollateralAtRisk(t *testing.T) {
	out := Compute(Inputs{
		Allocations: []domain.AllocationRow{
			{MarketKey: "m1", CollateralSymbol: "WETH", AllocationUsd: 100},
		},
		CollateralAtRisk: []domain.CollateralAtRiskSeries{
			{
				MarketKey: "m1",
				Points: []domain.CollateralAtRiskPoint{
					{Ratio: 0.8, CollateralUsd: 50},
					{Ratio: 1.0, CollateralUsd: 100},
				},
			},
			// Curve for a market outside the allocation set is ignored.
			{
				MarketKey: "foreign",
				Points:    []domain.CollateralAtRiskPoint{{Ratio: 0.85, CollateralUsd: 9999}},
			},
		},
		CurrentShare: map[string]float64{"m1": 0.5, "foreign": 1},
	})

	// Interpolated at 0.85: 50 + (100-50)*0.25 = 62.5; scaled by share 0.5.
	if out.Scorecard.StressCollateralAtRisk15PctUsd != 31.25 {
		t.Errorf("StressCollateralAtRisk15PctUsd = %v, want 31.25",
			out.Scorecard.StressCollateralAtRisk15PctUsd)
	}
}

func TestInterpolateCollateralUsdAtRatio_Clamps(t *testing.T) {
	points := []domain.CollateralAtRiskPoint{
		{Ratio: 0.9, CollateralUsd: 10},
		{Ratio: 0.95, CollateralUsd: 20},
	}

	if got := interpolateCollateralUsdAtRatio(points, 0.5); got == nil || *got != 10 {
		t.Errorf("below domain = %v, want first point", got)
	}
	if got := interpolateCollateralUsdAtRatio(points, 1.2); got == nil || *got != 20 {
		t.Errorf("above domain = %v, want last point", got)
	}
	if got := interpolateCollateralUsdAtRatio(nil, 0.85); got != nil {
		t.Errorf("empty curve = %v, want nil", got)
	}
}

func TestCompute_HealthBuckets(t *testing.T) {
	share := map[string]float64{"m1": 1}

	out := Compute(Inputs{
		Positions: []domain.Position{
			// Borrower "a" has two positions; the worse HF classifies them.
			{ID: "p1", UserAddress: "a", MarketKey: "m1", BorrowUsd: 100, HealthFactor: f(1.04)},
			{ID: "p2", UserAddress: "a", MarketKey: "m1", BorrowUsd: 50, HealthFactor: f(3)},
			{ID: "p3", UserAddress: "b", MarketKey: "m1", BorrowUsd: 200, HealthFactor: f(1.15)},
			{ID: "p4", UserAddress: "c", MarketKey: "m1", BorrowUsd: 300, HealthFactor: f(1.4)},
			{ID: "p5", UserAddress: "d", MarketKey: "m1", BorrowUsd: 400, HealthFactor: f(2)},
			{ID: "p6", UserAddress: "e", MarketKey: "m1", BorrowUsd: 25},
		},
		CurrentShare: share,
	})

	buckets := out.HealthBuckets
	if len(buckets) != 5 {
		t.Fatalf("len = %d, want 5", len(buckets))
	}

	wantBorrow := []float64{150, 200, 300, 400, 25}
	wantCounts := []int{1, 1, 1, 1, 1}
	total := 1075.0
	for i, bucket := range buckets {
		if bucket.BorrowUsd != wantBorrow[i] {
			t.Errorf("%s: BorrowUsd = %v, want %v", bucket.Label, bucket.BorrowUsd, wantBorrow[i])
		}
		if bucket.BorrowerCount != wantCounts[i] {
			t.Errorf("%s: BorrowerCount = %d, want %d", bucket.Label, bucket.BorrowerCount, wantCounts[i])
		}
		if bucket.ShareOfBorrow != bucket.BorrowUsd/total {
			t.Errorf("%s: ShareOfBorrow = %v", bucket.Label, bucket.ShareOfBorrow)
		}
	}
}

func TestCompute_LiquidationSummariesAndScaling(t *testing.T) {
	now := int64(1_000_000_000)
	day := int64(24 * 60 * 60)

	out := Compute(Inputs{
		Snapshot: domain.Snapshot{AsOfTimestamp: now},
		Liquidations: []domain.LiquidationIncident{
			{ID: "recent", MarketKey: "m1", Timestamp: now - 10*day, RepaidUsd: 100, SeizedUsd: 110, BadDebtUsd: 10},
			{ID: "older", MarketKey: "m1", Timestamp: now - 60*day, RepaidUsd: 200, SeizedUsd: 220, BadDebtUsd: 0},
			{ID: "ancient", MarketKey: "m1", Timestamp: now - 120*day, RepaidUsd: 400, SeizedUsd: 440, BadDebtUsd: 0},
		},
		ShareAt: func(marketKey string, timestamp int64) float64 { return 0.5 },
	})

	s30 := out.LiquidationSummary30d
	if s30.WindowDays != 30 || s30.IncidentCount != 1 || s30.RepaidUsd != 50 || s30.SeizedUsd != 55 || s30.BadDebtUsd != 5 {
		t.Errorf("30d summary = %+v", s30)
	}

	s90 := out.LiquidationSummary90d
	if s90.WindowDays != 90 || s90.IncidentCount != 2 || s90.RepaidUsd != 150 {
		t.Errorf("90d summary = %+v", s90)
	}

	// Recent incidents keep the fetched (newest-first) order, scaled.
	if len(out.RecentLiquidations) != 3 || out.RecentLiquidations[0].RepaidUsd != 50 {
		t.Errorf("recent = %+v", out.RecentLiquidations)
	}
}

func TestCompute_RecentLiquidationsCapped(t *testing.T) {
	incidents := make([]domain.LiquidationIncident, 25)
	for i := range incidents {
		incidents[i] = domain.LiquidationIncident{ID: string(rune('a' + i)), MarketKey: "m1"}
	}

	out := Compute(Inputs{
		Liquidations: incidents,
		ShareAt:      func(string, int64) float64 { return 1 },
	})

	if len(out.RecentLiquidations) != recentLiquidationLimit {
		t.Errorf("len = %d, want %d", len(out.RecentLiquidations), recentLiquidationLimit)
	}
}

func TestCompute_MethodologyNotes(t *testing.T) {
	out := Compute(Inputs{})
	if len(out.MethodologyNotes) != 6 {
		t.Errorf("len = %d, want 6", len(out.MethodologyNotes))
	}
}
