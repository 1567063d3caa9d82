// Package main generates a one-shot vault risk report: it builds the
// read-model once and writes the CSV and Markdown renditions to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/morpho"
	"vault-risk-lab/internal/readmodel"
	"vault-risk-lab/internal/reporting"
)

func main() {
	endpoint := flag.String("endpoint", os.Getenv("MORPHO_GRAPHQL_ENDPOINT"), "GraphQL API endpoint (default: public Morpho API)")
	vault := flag.String("vault", envOr("VAULT_ADDRESS", morpho.DefaultVaultAddress), "Vault address to report on")
	chainID := flag.Int("chain-id", morpho.DefaultChainID, "Chain ID of the vault")
	rangeKey := flag.String("range", string(domain.Range90D), "Chart range preset (30D, 60D, 90D, YTD, ALL)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall build timeout")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	parsedRange, ok := domain.ParseRangeKey(*rangeKey)
	if !ok {
		logger.Fatal().Str("range", *rangeKey).Msg("invalid range preset")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	builder := readmodel.NewBuilder(morpho.NewClient(*endpoint), readmodel.WithLogger(logger))
	model, err := builder.Build(ctx, *vault, *chainID, parsedRange)
	if err != nil {
		logger.Fatal().Err(err).Str("vault", *vault).Msg("failed to build read-model")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", *outputDir).Msg("failed to create output directory")
	}

	now := time.Now().UTC()
	stamp := now.Format("2006-01-02")
	csvPath := filepath.Join(*outputDir, fmt.Sprintf("risk_report_%s.csv", stamp))
	mdPath := filepath.Join(*outputDir, fmt.Sprintf("risk_report_%s.md", stamp))

	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(model)), 0644); err != nil {
		logger.Fatal().Err(err).Str("path", csvPath).Msg("failed to write CSV report")
	}
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(model, now)), 0644); err != nil {
		logger.Fatal().Err(err).Str("path", mdPath).Msg("failed to write Markdown report")
	}

	logger.Info().
		Str("csv", csvPath).
		Str("markdown", mdPath).
		Msg("report generated")
}

// envOr returns the environment value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
