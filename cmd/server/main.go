// Package main runs the vault risk service: a background refresh loop that
// rebuilds the read-model on an interval, a scorecard archive written after
// each successful build, and an HTTP read API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vault-risk-lab/internal/domain"
	"vault-risk-lab/internal/morpho"
	"vault-risk-lab/internal/observability"
	"vault-risk-lab/internal/readmodel"
	"vault-risk-lab/internal/storage"
	chstore "vault-risk-lab/internal/storage/clickhouse"
	"vault-risk-lab/internal/storage/memory"
	"vault-risk-lab/internal/storage/migrations"
	pgstore "vault-risk-lab/internal/storage/postgres"
)

// Server holds the configured vault, its refresh session and the stores.
type Server struct {
	addr            string
	vaultAddress    string
	chainID         int
	rangeKey        domain.RangeKey
	refreshInterval time.Duration

	builder *readmodel.Builder
	session *readmodel.Session

	registry storage.VaultRegistryStore
	history  storage.ScorecardHistoryStore

	log zerolog.Logger

	mu          sync.Mutex
	lastRefresh time.Time
	refreshRuns int
	startedAt   time.Time
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", ":8080", "HTTP listen address")
	endpoint := flag.String("endpoint", os.Getenv("MORPHO_GRAPHQL_ENDPOINT"), "GraphQL API endpoint (default: public Morpho API)")
	vault := flag.String("vault", envOr("VAULT_ADDRESS", morpho.DefaultVaultAddress), "Vault address to track")
	chainID := flag.Int("chain-id", morpho.DefaultChainID, "Chain ID of the vault")
	vaultLabel := flag.String("vault-label", "", "Human-readable label for the tracked vault")
	rangeKey := flag.String("range", string(domain.Range90D), "Chart range preset (30D, 60D, 90D, YTD, ALL)")
	refreshInterval := flag.Duration("refresh-interval", 15*time.Minute, "Read-model refresh interval")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	parsedRange, ok := domain.ParseRangeKey(*rangeKey)
	if !ok {
		logger.Fatal().Str("range", *rangeKey).Msg("invalid range preset")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal().Msg("-postgres-dsn and -clickhouse-dsn are required (use -use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, history, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create stores")
	}
	defer cleanup()

	client := morpho.NewClient(*endpoint)
	server := &Server{
		addr:            *addr,
		vaultAddress:    *vault,
		chainID:         *chainID,
		rangeKey:        parsedRange,
		refreshInterval: *refreshInterval,
		builder:         readmodel.NewBuilder(client, readmodel.WithLogger(logger)),
		session:         readmodel.NewSession(),
		registry:        registry,
		history:         history,
		log:             logger,
		startedAt:       time.Now(),
	}

	if err := server.registerVault(ctx, *vaultLabel); err != nil {
		logger.Fatal().Err(err).Msg("failed to register vault")
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		}
	}()

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("shutdown complete")
}

// createStores creates the vault registry and scorecard history stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.VaultRegistryStore, storage.ScorecardHistoryStore, func(), error) {
	if useMemory {
		return memory.NewVaultRegistryStore(), memory.NewScorecardHistoryStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewVaultRegistryStore(pool), chstore.NewScorecardHistoryStore(chConn), cleanup, nil
}

// Run starts the refresh loop and the HTTP server, blocking until the
// context is cancelled or the HTTP server fails.
func (s *Server) Run(ctx context.Context) error {
	go s.runRefreshLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /api/v1/vault/readmodel", s.handleReadModel)
	mux.HandleFunc("GET /api/v1/vault/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/vaults", s.handleVaults)
	mux.HandleFunc("GET /status", s.handleStatus)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("HTTP shutdown error")
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// registerVault inserts the tracked vault into the registry, tolerating an
// existing registration from a previous run.
func (s *Server) registerVault(ctx context.Context, label string) error {
	if label == "" {
		label = fmt.Sprintf("vault %s (chain %d)", s.vaultAddress, s.chainID)
	}
	err := s.registry.Insert(ctx, &domain.TrackedVault{
		Address:   s.vaultAddress,
		ChainID:   s.chainID,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}

// runRefreshLoop rebuilds the read-model immediately and then on every tick.
func (s *Server) runRefreshLoop(ctx context.Context) {
	s.refresh(ctx)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs one build through the session and archives the scorecard on
// success. A failed build keeps the last good model visible; the error is
// recorded on the session.
func (s *Server) refresh(ctx context.Context) {
	token := s.session.Begin()
	start := time.Now()
	model, err := s.builder.Build(ctx, s.vaultAddress, s.chainID, s.rangeKey)
	applied := s.session.Apply(token, model, err)

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.refreshRuns++
	s.mu.Unlock()

	if err != nil {
		observability.RecordBuild("error", time.Since(start).Seconds())
		s.log.Error().Err(err).Str("vault", s.vaultAddress).Msg("read-model refresh failed")
		return
	}
	observability.RecordBuild("success", time.Since(start).Seconds())
	if !applied {
		return
	}

	builtAt := time.Now().Unix()
	observability.RecordModel(
		len(model.Allocations),
		model.Risk.Scorecard.ActivePositions,
		len(model.Risk.RecentLiquidations),
		builtAt,
	)

	record := &domain.ScorecardRecord{
		VaultAddress: s.vaultAddress,
		ChainID:      s.chainID,
		AsOf:         model.Snapshot.AsOfTimestamp,
		BuiltAt:      builtAt,
		Scorecard:    model.Risk.Scorecard,
	}
	archiveErr := s.history.Insert(ctx, record)
	observability.RecordArchive(archiveErr)
	if archiveErr != nil {
		s.log.Warn().Err(archiveErr).Msg("failed to archive scorecard")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// readModelResponse wraps the session state for the read API.
type readModelResponse struct {
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Model   *domain.ReadModel `json:"model,omitempty"`
}

// handleReadModel serves the latest read-model. Requests for the configured
// vault and range are served from the session; any other address or range
// triggers a one-shot build.
func (s *Server) handleReadModel(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		address = s.vaultAddress
	}
	rangeKey := s.rangeKey
	if raw := r.URL.Query().Get("range"); raw != "" {
		parsed, ok := domain.ParseRangeKey(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid range %q", raw))
			return
		}
		rangeKey = parsed
	}

	if !strings.EqualFold(address, s.vaultAddress) || rangeKey != s.rangeKey {
		model, err := s.builder.Build(r.Context(), address, s.chainID, rangeKey)
		if err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, readModelResponse{Model: model})
		return
	}

	state := s.session.Latest()
	resp := readModelResponse{Loading: state.Loading, Model: state.Model}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}

	status := http.StatusOK
	if state.Model == nil {
		// Nothing to serve yet: still loading or the first build failed.
		status = http.StatusServiceUnavailable
		if state.Err != nil {
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, resp)
}

// handleHistory serves the archived scorecards for the configured vault,
// newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	records, err := s.history.GetByVault(r.Context(), s.vaultAddress, s.chainID, limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// handleVaults lists the registered vaults.
func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	vaults, err := s.registry.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vaults": vaults})
}

// statusResponse is the JSON response for the /status endpoint.
type statusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	Vault        string    `json:"vault"`
	ChainID      int       `json:"chainId"`
	Range        string    `json:"range"`
	LastRefresh  time.Time `json:"lastRefresh,omitempty"`
	RefreshRuns  int       `json:"refreshRuns"`
	ModelLoaded  bool      `json:"modelLoaded"`
	ModelLoading bool      `json:"modelLoading"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	state := s.session.Latest()

	s.mu.Lock()
	resp := statusResponse{
		Status:       "running",
		Uptime:       time.Since(s.startedAt).String(),
		Vault:        s.vaultAddress,
		ChainID:      s.chainID,
		Range:        string(s.rangeKey),
		LastRefresh:  s.lastRefresh,
		RefreshRuns:  s.refreshRuns,
		ModelLoaded:  state.Model != nil,
		ModelLoading: state.Loading,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// envOr returns the environment value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
