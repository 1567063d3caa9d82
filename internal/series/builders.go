package series

import (
	"sort"

	"vault-risk-lab/internal/domain"
)

// performanceBase is the index value assigned to the first observation of
// the performance series ("growth of 1000").
const performanceBase = 1000

// Performance rescales a share-price series into an indexed growth series:
// the first non-gap value becomes the baseline and every point is
// value/baseline*1000. A zero or absent baseline returns the normalized
// series unscaled.
func Performance(sharePrice []domain.Point) []domain.Point {
	normalized := Normalize(sharePrice)

	var baseline float64
	for _, p := range normalized {
		if p.Y != nil {
			baseline = *p.Y
			break
		}
	}
	if baseline == 0 {
		return normalized
	}

	out := make([]domain.Point, len(normalized))
	for i, p := range normalized {
		if p.Y == nil {
			out[i] = domain.Gap(p.X)
			continue
		}
		out[i] = domain.Value(p.X, *p.Y/baseline*performanceBase)
	}
	return out
}

// WeightedUtilization blends the per-market utilization histories into one
// vault-level series. Each utilization observation is weighted by the
// vault's allocation to that market at that instant — the historical
// allocation when the history covers the timestamp, otherwise the row's
// current allocation. Re-weighting per timestamp matters because the
// allocation mix shifts over time; a static weight would bias the trend.
func WeightedUtilization(allocations []domain.AllocationRow, allocationHistory map[string][]domain.Point) []domain.Point {
	type acc struct {
		weighted float64
		weight   float64
	}
	byTimestamp := make(map[int64]*acc)

	historyNonNull := make(map[string][]NonNullPoint, len(allocationHistory))
	for marketKey, hist := range allocationHistory {
		historyNonNull[marketKey] = ToNonNull(hist)
	}

	for _, allocation := range allocations {
		hist := historyNonNull[allocation.MarketKey]

		for _, point := range allocation.UtilizationHistory {
			if point.Y == nil {
				continue
			}

			var weight float64
			if w := StepValueAt(hist, point.X); w != nil {
				weight = *w
			} else if allocation.AllocationUsd > 0 {
				weight = allocation.AllocationUsd
			}
			if weight <= 0 {
				continue
			}

			a := byTimestamp[point.X]
			if a == nil {
				a = &acc{}
				byTimestamp[point.X] = a
			}
			a.weighted += *point.Y * weight
			a.weight += weight
		}
	}

	out := make([]domain.Point, 0, len(byTimestamp))
	for x, a := range byTimestamp {
		if a.weight == 0 {
			out = append(out, domain.Gap(x))
			continue
		}
		out = append(out, domain.Value(x, a.weighted/a.weight))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}
