package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection with
// the schema applied. Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	applySchema(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// applySchema creates the tables inline. This mirrors
// internal/storage/migrations/clickhouse/001_scorecard_history.sql; the
// migrations package cannot be imported here without an import cycle.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scorecard_history (
			vault_address                       LowCardinality(String),
			chain_id                            Int64,
			as_of                               Int64,
			built_at                            Int64,
			weighted_lltv                       Nullable(Float64),
			weighted_borrow_ltv                 Nullable(Float64),
			lltv_headroom                       Nullable(Float64),
			collateral_coverage_ratio           Nullable(Float64),
			liquidity_coverage                  Nullable(Float64),
			top_market_concentration            Float64,
			concentration_hhi                   Float64,
			near_liquidation_borrow_usd         Float64,
			stress_collateral_at_risk_15pct_usd Float64,
			total_borrow_usd                    Float64,
			total_collateral_usd                Float64,
			active_borrowers                    Int64,
			active_positions                    Int64
		) ENGINE = MergeTree()
		ORDER BY (vault_address, chain_id, built_at)
		SETTINGS index_granularity = 8192
	`)
	require.NoError(t, err)
}

// ptr is a helper to create pointers for test values
func ptr[T any](v T) *T {
	return &v
}
