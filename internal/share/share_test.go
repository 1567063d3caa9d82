package share

import (
	"testing"

	"vault-risk-lab/internal/domain"
)

func TestCurrentByMarket(t *testing.T) {
	allocations := []domain.AllocationRow{
		{MarketKey: "m1", AllocationUsd: 250, MarketTotalSupplyUsd: 1000},
		{MarketKey: "m2", AllocationUsd: 100, MarketTotalSupplyUsd: 0},  // undefined
		{MarketKey: "m3", AllocationUsd: 0, MarketTotalSupplyUsd: 500},  // undefined
		{MarketKey: "m4", AllocationUsd: 900, MarketTotalSupplyUsd: 60}, // clamped
	}

	shares := CurrentByMarket(allocations)

	if got := shares["m1"]; got != 0.25 {
		t.Errorf("m1 share = %v, want 0.25", got)
	}
	if _, ok := shares["m2"]; ok {
		t.Error("m2 should have no share entry (zero supply)")
	}
	if _, ok := shares["m3"]; ok {
		t.Error("m3 should have no share entry (zero allocation)")
	}
	if got := shares["m4"]; got != 1 {
		t.Errorf("m4 share = %v, want clamp to 1", got)
	}
}

func TestResolverAt_HistoricalLookup(t *testing.T) {
	r := NewResolver(
		map[string]float64{"m1": 0.5},
		map[string][]domain.Point{
			"m1": {domain.Value(100, 200), domain.Value(200, 400)},
		},
		map[string][]domain.Point{
			"m1": {domain.Value(100, 1000), domain.Value(200, 1000)},
		},
	)

	if got := r.At("m1", 150); got != 0.2 {
		t.Errorf("At(m1, 150) = %v, want 0.2", got)
	}
	if got := r.At("m1", 250); got != 0.4 {
		t.Errorf("At(m1, 250) = %v, want 0.4", got)
	}
}

func TestResolverAt_FallsBackToCurrent(t *testing.T) {
	current := map[string]float64{"m1": 0.3, "m2": 0.1}

	r := NewResolver(
		current,
		map[string][]domain.Point{
			"m2": {domain.Value(100, 50)},
		},
		map[string][]domain.Point{
			"m2": {domain.Value(100, 0)}, // non-positive supply
		},
	)

	// No history at all for m1.
	if got := r.At("m1", 100); got != 0.3 {
		t.Errorf("At(m1) = %v, want current fallback 0.3", got)
	}
	// History present but supply is zero at the instant.
	if got := r.At("m2", 100); got != 0.1 {
		t.Errorf("At(m2) = %v, want current fallback 0.1", got)
	}
	// Neither history nor current share: defaults to 0.
	if got := r.At("unknown", 100); got != 0 {
		t.Errorf("At(unknown) = %v, want 0", got)
	}
}

func TestResolverAt_ClampsToOne(t *testing.T) {
	r := NewResolver(
		nil,
		map[string][]domain.Point{"m1": {domain.Value(100, 5000)}},
		map[string][]domain.Point{"m1": {domain.Value(100, 100)}},
	)

	if got := r.At("m1", 100); got != 1 {
		t.Errorf("At = %v, want clamp to 1", got)
	}
}
