package reporting

import (
	"strings"
	"testing"
	"time"

	"vault-risk-lab/internal/domain"
)

func f(v float64) *float64 { return &v }

func sampleReadModel() *domain.ReadModel {
	return &domain.ReadModel{
		Snapshot: domain.Snapshot{
			Name:           "Gauntlet USDC Prime",
			ChainNetwork:   "ethereum",
			TotalAssetsUsd: 1234567.89,
			NetApy:         0.0525,
			AsOfTimestamp:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).Unix(),
		},
		Allocations: []domain.AllocationRow{
			{
				CollateralSymbol: "WETH", LoanSymbol: "USDC",
				AllocationUsd: 600000, AllocationPct: 0.6,
				Lltv: f(0.86), MarketNetApy: 0.04, MarketUtilization: 0.8,
			},
			{
				CollateralSymbol: domain.IdleCollateralSymbol, LoanSymbol: "USDC",
				AllocationUsd: 400000, AllocationPct: 0.4,
			},
		},
		Risk: domain.RiskAnalysis{
			Scorecard: domain.Scorecard{
				WeightedBorrowLtv: f(0.5),
				TotalBorrowUsd:    500000,
				ActiveBorrowers:   12,
				ActivePositions:   15,
			},
			HealthBuckets: []domain.HealthBucket{
				{Label: "Critical (HF <= 1.05)", BorrowerCount: 1, BorrowUsd: 1000, ShareOfBorrow: 0.002},
			},
			LiquidationSummary30d: domain.LiquidationSummary{WindowDays: 30, IncidentCount: 1, RepaidUsd: 50},
			LiquidationSummary90d: domain.LiquidationSummary{WindowDays: 90, IncidentCount: 2, RepaidUsd: 150},
			RecentLiquidations: []domain.LiquidationIncident{
				{Timestamp: 1750000000, MarketLabel: "WETH/USDC", RepaidUsd: 50, Hash: "0xabc"},
			},
			MethodologyNotes: []string{"note one", "note two"},
		},
	}
}

func TestDisplayVaultName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Gauntlet USDC Prime", "USDC Prime"},
		{"USDC gauntlet Core", "USDC Core"},
		{"Gauntlet", "Prime Credit Vault"},
		{"Steakhouse USDC", "Steakhouse USDC"},
	}
	for _, tc := range cases {
		if got := DisplayVaultName(tc.in); got != tc.want {
			t.Errorf("DisplayVaultName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234567.891, "$1,234,567.89"},
		{0, "$0.00"},
		{-42.5, "-$42.50"},
		{999.999, "$1,000.00"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatPercentPtr(t *testing.T) {
	if got := FormatPercentPtr(f(0.1234), 2); got != "12.34%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPercentPtr(nil, 2); got != "N/A" {
		t.Errorf("nil = %q, want N/A", got)
	}
}

func TestRenderCSV(t *testing.T) {
	out := RenderCSV(sampleReadModel())

	wantLines := []string{
		"section,metric,value",
		"executive,vault,USDC Prime",
		"executive,chain,ETHEREUM",
		"executive,total_supply,\"$1,234,567.89\"",
		"executive,pool_loan_to_value,50.00%",
		"allocations,WETH/USDC,60.00%",
		"allocations,Idle/USDC,40.00%",
		"health,Critical (HF <= 1.05),1",
		"liquidation_summary,30d,1,$50.00",
		"liquidations,2025-06-15,WETH/USDC,$50.00",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("CSV missing %q\n%s", want, out)
		}
	}

	// Idle markets carry no LLTV.
	if !strings.Contains(out, "Idle/USDC,40.00%,\"$400,000.00\",N/A") {
		t.Errorf("idle row not rendered with N/A LLTV:\n%s", out)
	}
}

func TestRenderCSV_EscapesCommaCells(t *testing.T) {
	model := sampleReadModel()
	model.Snapshot.Name = `Vault "A", Prime`

	out := RenderCSV(model)
	if !strings.Contains(out, `executive,vault,"Vault ""A"", Prime"`) {
		t.Errorf("cell not escaped:\n%s", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	generatedAt := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	out := RenderMarkdown(sampleReadModel(), generatedAt)

	wantFragments := []string{
		"# Credit Risk Report - USDC Prime",
		"Generated: 2026-03-02T09:00:00Z",
		"## Pool Summary",
		"| Pool Loan-to-Value | 50.00% |",
		"| Weighted LLTV | N/A |",
		"| WETH/USDC | 60.00% |",
		"## Borrower Health Distribution",
		"| Last 30 Days | 1 |",
		"| Last 90 Days | 2 |",
		"## Recent Liquidation Incidents",
		"- note one",
	}
	for _, want := range wantFragments {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_NoLiquidations(t *testing.T) {
	model := sampleReadModel()
	model.Risk.RecentLiquidations = nil

	out := RenderMarkdown(model, time.Now())
	if !strings.Contains(out, "No incidents in lookback period.") {
		t.Error("empty liquidation section not rendered")
	}
}
