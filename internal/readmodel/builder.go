// Package readmodel orchestrates a vault read-model build: one dashboard
// fetch, three concurrent risk fetches, then derivation of chart series and
// the risk analysis.
package readmodel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/morpho"
	"vault-risk-lab/internal/risk"
	"vault-risk-lab/internal/series"
	"vault-risk-lab/internal/share"
)

// Builder builds vault read-models against a GraphQL querier.
type Builder struct {
	querier morpho.Querier
	log     zerolog.Logger
	now     func() time.Time
}

// BuilderOption configures Builder.
type BuilderOption func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(log zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = log
	}
}

// WithClock overrides the time source; tests pin it.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder.
func NewBuilder(querier morpho.Querier, opts ...BuilderOption) *Builder {
	b := &Builder{
		querier: querier,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches and assembles the read-model for one vault and chart range.
// The risk window always spans the liquidation lookback regardless of the
// chart range, so risk metrics stay comparable across ranges.
func (b *Builder) Build(ctx context.Context, address string, chainID int, rangeKey domain.RangeKey) (*domain.ReadModel, error) {
	started := b.now()
	rangeConfig := domain.ConfigForRange(rangeKey, started)
	riskStart := started.Unix() - risk.LiquidationLookbackDays*24*60*60

	dashboard, err := morpho.FetchDashboard(ctx, b.querier, address, chainID, morpho.Window{
		Start:     rangeConfig.StartTimestamp,
		End:       rangeConfig.EndTimestamp,
		Interval:  rangeConfig.Interval,
		RiskStart: riskStart,
		RiskEnd:   rangeConfig.EndTimestamp,
	})
	if err != nil {
		return nil, err
	}

	currentShare := share.CurrentByMarket(dashboard.Allocations)
	shareResolver := share.NewResolver(currentShare, dashboard.AllocationHistory, dashboard.MarketSupplyHistory)
	riskMarketKeys := dashboard.RiskMarketKeys()

	// The three risk fetches are independent; run them together. A missing
	// stress curve degrades one metric, so collateral-at-risk failures are
	// absorbed inside the fetch, while position and liquidation failures
	// fail the build.
	var (
		wg               sync.WaitGroup
		collateralAtRisk []domain.CollateralAtRiskSeries
		positions        []domain.Position
		positionsErr     error
		liquidations     []domain.LiquidationIncident
		liquidationsErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		collateralAtRisk = morpho.FetchCollateralAtRisk(ctx, b.querier, dashboard.Allocations, chainID)
	}()
	go func() {
		defer wg.Done()
		positions, positionsErr = morpho.FetchPositions(ctx, b.querier, riskMarketKeys, chainID)
	}()
	go func() {
		defer wg.Done()
		liquidations, liquidationsErr = morpho.FetchLiquidations(ctx, b.querier, riskMarketKeys, chainID, riskStart)
	}()
	wg.Wait()

	if positionsErr != nil {
		return nil, fmt.Errorf("fetch positions: %w", positionsErr)
	}
	if liquidationsErr != nil {
		return nil, fmt.Errorf("fetch liquidations: %w", liquidationsErr)
	}

	analysis := risk.Compute(risk.Inputs{
		Snapshot:         dashboard.Snapshot,
		Allocations:      dashboard.Allocations,
		CollateralAtRisk: collateralAtRisk,
		Positions:        positions,
		Liquidations:     liquidations,
		CurrentShare:     currentShare,
		ShareAt:          shareResolver.At,
		Now:              started.Unix(),
	})

	model := &domain.ReadModel{
		Snapshot:          dashboard.Snapshot,
		Allocations:       dashboard.Allocations,
		PerformanceSeries: series.Performance(dashboard.SharePriceSeries),
		NetApySeries:      dashboard.NetApySeries,
		SupplySeries:      dashboard.SupplySeries,
		UtilizationSeries: series.WeightedUtilization(dashboard.Allocations, dashboard.AllocationHistory),
		CollateralAtRisk:  collateralAtRisk,
		Risk:              analysis,
	}

	b.log.Info().
		Str("vault", address).
		Int("chain_id", chainID).
		Str("range", string(rangeKey)).
		Int("allocations", len(model.Allocations)).
		Int("positions", len(positions)).
		Int("liquidations", len(liquidations)).
		Dur("elapsed", b.now().Sub(started)).
		Msg("read-model built")

	return model, nil
}
