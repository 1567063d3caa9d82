// Package share answers "what fraction of market M's total supply did the
// vault hold at time T?". Position and liquidation exposures are scaled by
// this fraction to isolate the vault's slice of each market.
package share

import (
	"math"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/series"
)

// CurrentByMarket computes the vault's present share of each market from
// the allocation rows. Markets with non-positive supply or allocation get
// no entry: their share is undefined, not zero.
func CurrentByMarket(allocations []domain.AllocationRow) map[string]float64 {
	shares := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		if a.MarketTotalSupplyUsd <= 0 || a.AllocationUsd <= 0 {
			continue
		}
		shares[a.MarketKey] = clamp01(a.AllocationUsd / a.MarketTotalSupplyUsd)
	}
	return shares
}

// Resolver resolves the vault's share of a market at a historical instant
// from the vault allocation history and the market supply history.
type Resolver struct {
	current map[string]float64
	alloc   map[string][]series.NonNullPoint
	supply  map[string][]series.NonNullPoint
}

// NewResolver builds a Resolver over the given histories. current is the
// fallback when a historical lookup cannot be answered.
func NewResolver(current map[string]float64, allocationHistory, supplyHistory map[string][]domain.Point) *Resolver {
	r := &Resolver{
		current: current,
		alloc:   make(map[string][]series.NonNullPoint, len(allocationHistory)),
		supply:  make(map[string][]series.NonNullPoint, len(supplyHistory)),
	}
	for marketKey, hist := range allocationHistory {
		r.alloc[marketKey] = series.ToNonNull(hist)
	}
	for marketKey, hist := range supplyHistory {
		r.supply[marketKey] = series.ToNonNull(hist)
	}
	return r
}

// At returns the vault's share of marketKey at timestamp t, clamped to
// [0,1]. Incidents can predate the fetched history window, so missing
// series, non-positive supply or a non-finite division all fall back to
// the current share, and to 0 when no current share exists either.
func (r *Resolver) At(marketKey string, t int64) float64 {
	fallback := r.current[marketKey]

	allocSeries, okAlloc := r.alloc[marketKey]
	supplySeries, okSupply := r.supply[marketKey]
	if !okAlloc || !okSupply {
		return fallback
	}

	allocAt := series.StepValueAt(allocSeries, t)
	supplyAt := series.StepValueAt(supplySeries, t)
	if allocAt == nil || supplyAt == nil || *supplyAt <= 0 {
		return fallback
	}

	s := *allocAt / *supplyAt
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return fallback
	}
	return clamp01(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
