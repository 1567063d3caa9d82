package reporting

import (
	"fmt"
	"strings"
	"time"

	"vault-risk-lab/internal/domain"
)

// Row caps for the Markdown report.
const (
	markdownAllocationLimit  = 6
	markdownLiquidationLimit = 8
)

// RenderMarkdown renders the read-model as a Markdown risk report.
func RenderMarkdown(model *domain.ReadModel, generatedAt time.Time) string {
	var sb strings.Builder
	sc := model.Risk.Scorecard

	sb.WriteString(fmt.Sprintf("# Credit Risk Report - %s\n\n", DisplayVaultName(model.Snapshot.Name)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Report date: %s | Chain: %s\n\n",
		FormatDate(model.Snapshot.AsOfTimestamp),
		strings.ToUpper(model.Snapshot.ChainNetwork)))

	sb.WriteString("## Pool Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Current Pool TVL | %s |\n", FormatCurrency(model.Snapshot.TotalAssetsUsd)))
	sb.WriteString(fmt.Sprintf("| Net APY | %s |\n", FormatPercent(model.Snapshot.NetApy, 2)))
	sb.WriteString(fmt.Sprintf("| Pool Loan-to-Value | %s |\n", FormatPercentPtr(sc.WeightedBorrowLtv, 2)))
	sb.WriteString(fmt.Sprintf("| Weighted LLTV | %s |\n", FormatPercentPtr(sc.WeightedLltv, 2)))
	sb.WriteString(fmt.Sprintf("| LLTV Headroom | %s |\n", FormatPercentPtr(sc.LltvHeadroom, 2)))
	sb.WriteString(fmt.Sprintf("| Collateral Coverage | %s |\n", FormatPercentPtr(sc.CollateralCoverageRatio, 2)))
	sb.WriteString(fmt.Sprintf("| Liquidity Coverage | %s |\n", FormatPercentPtr(sc.LiquidityCoverage, 2)))
	sb.WriteString(fmt.Sprintf("| Total Borrow | %s |\n", FormatCurrency(sc.TotalBorrowUsd)))
	sb.WriteString(fmt.Sprintf("| Total Collateral | %s |\n", FormatCurrency(sc.TotalCollateralUsd)))
	sb.WriteString(fmt.Sprintf("| Near-Liquidation Borrow | %s |\n", FormatCurrency(sc.NearLiquidationBorrowUsd)))
	sb.WriteString(fmt.Sprintf("| Stress 15%% Collateral At Risk | %s |\n", FormatCurrency(sc.StressCollateralAtRisk15PctUsd)))
	sb.WriteString(fmt.Sprintf("| Top Market Concentration | %s |\n", FormatPercent(sc.TopMarketConcentration, 2)))
	sb.WriteString(fmt.Sprintf("| Concentration HHI | %.4f |\n", sc.ConcentrationHhi))
	sb.WriteString(fmt.Sprintf("| Active Borrowers | %s |\n", FormatCount(sc.ActiveBorrowers)))
	sb.WriteString(fmt.Sprintf("| Active Loans | %s |\n", FormatCount(sc.ActivePositions)))
	sb.WriteString("\n")

	sb.WriteString("## Top Market Allocation\n\n")
	if len(model.Allocations) > 0 {
		sb.WriteString("| Market | Allocation % | Vault Supply | Liquidation LTV | Net APY | Utilization |\n")
		sb.WriteString("|--------|--------------|--------------|-----------------|---------|-------------|\n")
		allocations := model.Allocations
		if len(allocations) > markdownAllocationLimit {
			allocations = allocations[:markdownAllocationLimit]
		}
		for _, row := range allocations {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				row.MarketLabel(),
				FormatPercent(row.AllocationPct, 2),
				FormatCurrency(row.AllocationUsd),
				FormatPercentPtr(row.Lltv, 2),
				FormatPercent(row.MarketNetApy, 2),
				FormatPercent(row.MarketUtilization, 2)))
		}
	} else {
		sb.WriteString("No allocation data.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Borrower Health Distribution\n\n")
	sb.WriteString("| Bucket | Borrowers | Borrow Exposure | Share of Borrow |\n")
	sb.WriteString("|--------|-----------|-----------------|------------------|\n")
	for _, bucket := range model.Risk.HealthBuckets {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			bucket.Label,
			FormatCount(bucket.BorrowerCount),
			FormatCurrency(bucket.BorrowUsd),
			FormatPercent(bucket.ShareOfBorrow, 2)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Liquidation Summary\n\n")
	sb.WriteString("| Window | Incidents | Repaid | Seized | Bad Debt |\n")
	sb.WriteString("|--------|-----------|--------|--------|----------|\n")
	for _, summary := range []domain.LiquidationSummary{
		model.Risk.LiquidationSummary30d,
		model.Risk.LiquidationSummary90d,
	} {
		sb.WriteString(fmt.Sprintf("| Last %d Days | %s | %s | %s | %s |\n",
			summary.WindowDays,
			FormatCount(summary.IncidentCount),
			FormatCurrency(summary.RepaidUsd),
			FormatCurrency(summary.SeizedUsd),
			FormatCurrency(summary.BadDebtUsd)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Recent Liquidation Incidents\n\n")
	if len(model.Risk.RecentLiquidations) > 0 {
		sb.WriteString("| Date | Market | Repaid | Seized | Bad Debt |\n")
		sb.WriteString("|------|--------|--------|--------|----------|\n")
		incidents := model.Risk.RecentLiquidations
		if len(incidents) > markdownLiquidationLimit {
			incidents = incidents[:markdownLiquidationLimit]
		}
		for _, incident := range incidents {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				FormatDate(incident.Timestamp),
				incident.MarketLabel,
				FormatCurrency(incident.RepaidUsd),
				FormatCurrency(incident.SeizedUsd),
				FormatCurrency(incident.BadDebtUsd)))
		}
	} else {
		sb.WriteString("No incidents in lookback period.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Methodology\n\n")
	for _, note := range model.Risk.MethodologyNotes {
		sb.WriteString(fmt.Sprintf("- %s\n", note))
	}
	sb.WriteString("\n")

	return sb.String()
}
