package morpho

import (
	"context"
	"fmt"
	"sort"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/numeric"
)

// Page sizes and curve resolution used by the risk fetches.
const (
	positionsPageSize     = 200
	liquidationsPageSize  = 100
	collateralCurvePoints = 24
)

// FetchCollateralAtRisk fetches the price-stress curve of every funded,
// LLTV-bearing, non-idle market. A failed market query drops that market's
// curve rather than failing the build; stress metrics degrade gracefully.
func FetchCollateralAtRisk(ctx context.Context, q Querier, allocations []domain.AllocationRow, chainID int) []domain.CollateralAtRiskSeries {
	out := make([]domain.CollateralAtRiskSeries, 0, len(allocations))
	for _, allocation := range allocations {
		if allocation.AllocationUsd <= 0 || allocation.Lltv == nil || allocation.IsIdle() {
			continue
		}

		var resp collateralAtRiskResponse
		err := q.Query(ctx, collateralAtRiskQuery, map[string]any{
			"uniqueKey":      allocation.MarketKey,
			"chainId":        chainID,
			"numberOfPoints": collateralCurvePoints,
		}, &resp)
		if err != nil {
			continue
		}

		curve := resp.MarketCollateralAtRisk
		points := make([]domain.CollateralAtRiskPoint, 0, len(curve.CollateralAtRisk))
		for _, p := range curve.CollateralAtRisk {
			points = append(points, domain.CollateralAtRiskPoint{
				Ratio:         numeric.ToFinite(p.CollateralPriceRatio),
				CollateralUsd: numeric.ToFinite(p.CollateralUsd),
			})
		}

		out = append(out, domain.CollateralAtRiskSeries{
			MarketKey: curve.Market.UniqueKey,
			Label:     marketLabel(curve.Market.CollateralAsset, curve.Market.LoanAsset),
			Points:    points,
		})
	}
	return out
}

// FetchPositions pages through every open borrow position in the given
// markets. Positions with no borrow exposure are dropped; duplicates across
// pages are deduplicated by id.
func FetchPositions(ctx context.Context, q Querier, marketKeys []string, chainID int) ([]domain.Position, error) {
	if len(marketKeys) == 0 {
		return nil, nil
	}

	var positions []domain.Position
	seen := make(map[string]struct{})
	skip := 0

	for {
		var resp marketPositionsResponse
		err := q.Query(ctx, marketPositionsQuery, map[string]any{
			"first":      positionsPageSize,
			"skip":       skip,
			"marketKeys": marketKeys,
			"chainIds":   []int{chainID},
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("market positions query (skip=%d): %w", skip, err)
		}

		items := resp.MarketPositions.Items
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}

			var borrowUsd, collateralUsd, marginUsd float64
			if item.State != nil {
				borrowUsd = numeric.ToFinite(item.State.BorrowAssetsUsd)
				collateralUsd = numeric.ToFinite(item.State.CollateralUsd)
				marginUsd = numeric.ToFinite(item.State.MarginUsd)
			}
			if borrowUsd <= 0 {
				continue
			}

			userAddress := item.ID
			if item.User != nil {
				userAddress = item.User.Address
			}

			var healthFactor *float64
			if item.HealthFactor != nil {
				hf := numeric.ToFinite(*item.HealthFactor)
				healthFactor = &hf
			}

			positions = append(positions, domain.Position{
				ID:            item.ID,
				UserAddress:   userAddress,
				MarketKey:     item.Market.UniqueKey,
				MarketLabel:   marketLabel(item.Market.CollateralAsset, item.Market.LoanAsset),
				Lltv:          numeric.ParseRatio(item.Market.Lltv),
				HealthFactor:  healthFactor,
				BorrowUsd:     borrowUsd,
				CollateralUsd: collateralUsd,
				MarginUsd:     marginUsd,
			})
		}

		if len(items) < positionsPageSize || skip+len(items) >= resp.MarketPositions.PageInfo.CountTotal {
			break
		}
		skip += len(items)
	}

	return positions, nil
}

// FetchLiquidations pages through liquidation transactions in the given
// markets since the lookback bound, newest first. Items missing the typed
// data payload are skipped; duplicates across pages are deduplicated by id.
func FetchLiquidations(ctx context.Context, q Querier, marketKeys []string, chainID int, since int64) ([]domain.LiquidationIncident, error) {
	if len(marketKeys) == 0 {
		return nil, nil
	}

	var incidents []domain.LiquidationIncident
	seen := make(map[string]struct{})
	skip := 0

	for {
		var resp liquidationsResponse
		err := q.Query(ctx, liquidationsQuery, map[string]any{
			"first":        liquidationsPageSize,
			"skip":         skip,
			"marketKeys":   marketKeys,
			"chainIds":     []int{chainID},
			"timestampGte": since,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("liquidations query (skip=%d): %w", skip, err)
		}

		items := resp.Transactions.Items
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			if item.Data == nil {
				continue
			}
			seen[item.ID] = struct{}{}

			incidents = append(incidents, domain.LiquidationIncident{
				ID:          item.ID,
				Timestamp:   int64(numeric.ToFinite(item.Timestamp)),
				Hash:        item.Hash,
				MarketKey:   item.Data.Market.UniqueKey,
				MarketLabel: marketLabel(item.Data.Market.CollateralAsset, item.Data.Market.LoanAsset),
				RepaidUsd:   numeric.ToFinite(item.Data.RepaidAssetsUsd),
				SeizedUsd:   numeric.ToFinite(item.Data.SeizedAssetsUsd),
				BadDebtUsd:  numeric.ToFinite(item.Data.BadDebtAssetsUsd),
			})
		}

		if len(items) < liquidationsPageSize || skip+len(items) >= resp.Transactions.PageInfo.CountTotal {
			break
		}
		skip += len(items)
	}

	sort.SliceStable(incidents, func(i, j int) bool {
		return incidents[i].Timestamp > incidents[j].Timestamp
	})
	return incidents, nil
}
