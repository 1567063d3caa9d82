package reporting

import (
	"fmt"
	"strings"

	"vault-risk-lab/internal/domain"
)

// csvLiquidationLimit caps the incident rows of the CSV report.
const csvLiquidationLimit = 30

// RenderCSV renders the read-model as a sectioned CSV report: an executive
// summary, the allocation table, the borrower health distribution and the
// liquidation history.
func RenderCSV(model *domain.ReadModel) string {
	var sb strings.Builder
	sc := model.Risk.Scorecard

	sb.WriteString("section,metric,value\n")
	writeRow(&sb, "executive", "report_date", FormatDate(model.Snapshot.AsOfTimestamp))
	writeRow(&sb, "executive", "vault", DisplayVaultName(model.Snapshot.Name))
	writeRow(&sb, "executive", "chain", strings.ToUpper(model.Snapshot.ChainNetwork))
	writeRow(&sb, "executive", "total_supply", FormatCurrency(model.Snapshot.TotalAssetsUsd))
	writeRow(&sb, "executive", "net_apy", FormatPercent(model.Snapshot.NetApy, 2))
	writeRow(&sb, "executive", "pool_loan_to_value", FormatPercentPtr(sc.WeightedBorrowLtv, 2))
	writeRow(&sb, "executive", "collateral_coverage_ratio", FormatPercentPtr(sc.CollateralCoverageRatio, 2))
	writeRow(&sb, "executive", "liquidity_coverage", FormatPercentPtr(sc.LiquidityCoverage, 2))
	writeRow(&sb, "executive", "near_liquidation_borrow", FormatCurrency(sc.NearLiquidationBorrowUsd))
	writeRow(&sb, "executive", "stress_15pct_collateral_at_risk", FormatCurrency(sc.StressCollateralAtRisk15PctUsd))
	writeRow(&sb, "executive", "active_borrowers", FormatCount(sc.ActiveBorrowers))
	writeRow(&sb, "executive", "active_loans", FormatCount(sc.ActivePositions))

	sb.WriteString("\nallocations,market,allocation_pct,vault_supply_usd,liquidation_ltv,net_apy,market_liquidity_usd,utilization\n")
	for _, row := range model.Allocations {
		writeRow(&sb, "allocations",
			row.MarketLabel(),
			FormatPercent(row.AllocationPct, 2),
			FormatCurrency(row.AllocationUsd),
			FormatPercentPtr(row.Lltv, 2),
			FormatPercent(row.MarketNetApy, 2),
			FormatCurrency(row.MarketLiquidityUsd),
			FormatPercent(row.MarketUtilization, 2),
		)
	}

	sb.WriteString("\nhealth,bucket,borrowers,borrow_exposure,share_of_borrow\n")
	for _, bucket := range model.Risk.HealthBuckets {
		writeRow(&sb, "health",
			bucket.Label,
			FormatCount(bucket.BorrowerCount),
			FormatCurrency(bucket.BorrowUsd),
			FormatPercent(bucket.ShareOfBorrow, 2),
		)
	}

	sb.WriteString("\nliquidation_summary,window,incidents,repaid,seized,bad_debt\n")
	for _, summary := range []domain.LiquidationSummary{
		model.Risk.LiquidationSummary30d,
		model.Risk.LiquidationSummary90d,
	} {
		writeRow(&sb, "liquidation_summary",
			fmt.Sprintf("%dd", summary.WindowDays),
			FormatCount(summary.IncidentCount),
			FormatCurrency(summary.RepaidUsd),
			FormatCurrency(summary.SeizedUsd),
			FormatCurrency(summary.BadDebtUsd),
		)
	}

	sb.WriteString("\nliquidations,date,market,repaid,seized,bad_debt,tx_hash\n")
	incidents := model.Risk.RecentLiquidations
	if len(incidents) > csvLiquidationLimit {
		incidents = incidents[:csvLiquidationLimit]
	}
	for _, incident := range incidents {
		writeRow(&sb, "liquidations",
			FormatDate(incident.Timestamp),
			incident.MarketLabel,
			FormatCurrency(incident.RepaidUsd),
			FormatCurrency(incident.SeizedUsd),
			FormatCurrency(incident.BadDebtUsd),
			incident.Hash,
		)
	}

	return sb.String()
}

func writeRow(sb *strings.Builder, cells ...string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(escapeCSVCell(cell))
	}
	sb.WriteByte('\n')
}

func escapeCSVCell(s string) string {
	if !strings.ContainsAny(s, "\",\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
