package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/storage"
)

// ScorecardHistoryStore implements storage.ScorecardHistoryStore using ClickHouse.
// The table is append-only; there is no uniqueness to enforce.
type ScorecardHistoryStore struct {
	conn *Conn
}

// NewScorecardHistoryStore creates a new ScorecardHistoryStore.
func NewScorecardHistoryStore(conn *Conn) *ScorecardHistoryStore {
	return &ScorecardHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScorecardHistoryStore = (*ScorecardHistoryStore)(nil)

const scorecardColumns = `
	vault_address, chain_id, as_of, built_at,
	weighted_lltv, weighted_borrow_ltv, lltv_headroom,
	collateral_coverage_ratio, liquidity_coverage,
	top_market_concentration, concentration_hhi,
	near_liquidation_borrow_usd, stress_collateral_at_risk_15pct_usd,
	total_borrow_usd, total_collateral_usd,
	active_borrowers, active_positions
`

// Insert appends a scorecard record. Addresses are stored lowercased.
func (s *ScorecardHistoryStore) Insert(ctx context.Context, record *domain.ScorecardRecord) error {
	if record == nil || record.VaultAddress == "" {
		return storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`INSERT INTO scorecard_history (%s) VALUES (
		?, ?, ?, ?,
		?, ?, ?,
		?, ?,
		?, ?,
		?, ?,
		?, ?,
		?, ?
	)`, scorecardColumns)

	sc := record.Scorecard
	err := s.conn.Exec(ctx, query,
		strings.ToLower(record.VaultAddress), int64(record.ChainID), record.AsOf, record.BuiltAt,
		sc.WeightedLltv, sc.WeightedBorrowLtv, sc.LltvHeadroom,
		sc.CollateralCoverageRatio, sc.LiquidityCoverage,
		sc.TopMarketConcentration, sc.ConcentrationHhi,
		sc.NearLiquidationBorrowUsd, sc.StressCollateralAtRisk15PctUsd,
		sc.TotalBorrowUsd, sc.TotalCollateralUsd,
		int64(sc.ActiveBorrowers), int64(sc.ActivePositions),
	)
	if err != nil {
		return fmt.Errorf("insert scorecard record: %w", err)
	}
	return nil
}

// GetByVault returns up to limit records for a vault, newest first.
// limit <= 0 means no limit.
func (s *ScorecardHistoryStore) GetByVault(ctx context.Context, address string, chainID int, limit int) ([]*domain.ScorecardRecord, error) {
	if address == "" {
		return nil, storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM scorecard_history
		WHERE vault_address = ? AND chain_id = ?
		ORDER BY built_at DESC
	`, scorecardColumns)
	args := []interface{}{strings.ToLower(address), int64(chainID)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, int64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scorecard history: %w", err)
	}
	defer rows.Close()

	var records []*domain.ScorecardRecord
	for rows.Next() {
		var (
			record               domain.ScorecardRecord
			rowChainID           int64
			borrowers, positions int64
		)
		sc := &record.Scorecard
		err := rows.Scan(
			&record.VaultAddress, &rowChainID, &record.AsOf, &record.BuiltAt,
			&sc.WeightedLltv, &sc.WeightedBorrowLtv, &sc.LltvHeadroom,
			&sc.CollateralCoverageRatio, &sc.LiquidityCoverage,
			&sc.TopMarketConcentration, &sc.ConcentrationHhi,
			&sc.NearLiquidationBorrowUsd, &sc.StressCollateralAtRisk15PctUsd,
			&sc.TotalBorrowUsd, &sc.TotalCollateralUsd,
			&borrowers, &positions,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scorecard row: %w", err)
		}
		record.ChainID = int(rowChainID)
		sc.ActiveBorrowers = int(borrowers)
		sc.ActivePositions = int(positions)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scorecard rows: %w", err)
	}

	return records, nil
}
