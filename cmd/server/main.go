// Package main runs the launchpad backend: trade ingestion and quest
// evaluation on their schedules, per-token terminal broadcasts, and the
// reward allocation endpoint data, with Prometheus metrics on the side.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-launchpad/internal/feed"
	"token-launchpad/internal/generator"
	"token-launchpad/internal/hub"
	"token-launchpad/internal/ingestion"
	"token-launchpad/internal/market"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/quests"
	"token-launchpad/internal/rewards"
	"token-launchpad/internal/storage"
	chstore "token-launchpad/internal/storage/clickhouse"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/storage/migrations"
	pgstore "token-launchpad/internal/storage/postgres"
	"token-launchpad/internal/terminal"
)

// allStores holds all storage implementations.
type allStores struct {
	tokenStore   storage.TokenStore
	tradeStore   storage.TradeStore
	walletStore  storage.WalletStore
	archiveStore storage.TradeArchiveStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("TRADE_FEED_ENDPOINT"), "Trade feed API base URL")
	marketEndpoint := flag.String("market-endpoint", os.Getenv("MARKET_DATA_ENDPOINT"), "Market data API base URL")
	generatorEndpoint := flag.String("generator-endpoint", os.Getenv("GENERATOR_ENDPOINT"), "Content generator API base URL")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	ingestInterval := flag.Duration("ingest-interval", 30*time.Second, "Trade ingest interval")
	curveInterval := flag.Duration("curve-interval", 30*time.Second, "Curve progress poll interval")
	mcapInterval := flag.Duration("mcap-interval", 5*time.Minute, "Market-cap quest evaluation interval")
	rankInterval := flag.Duration("rank-interval", time.Hour, "Global rank quest evaluation interval")
	terminalInterval := flag.Duration("terminal-interval", terminal.DefaultInterval, "Terminal generation interval")
	marketTTL := flag.Duration("market-ttl", market.DefaultTTL, "Market data cache TTL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *feedEndpoint == "" {
		logger.Fatal("--feed-endpoint is required")
	}
	if *marketEndpoint == "" {
		logger.Fatal("--market-endpoint is required")
	}
	if *generatorEndpoint == "" {
		logger.Fatal("--generator-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	metrics := observability.NewMetrics("")

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, metrics)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// External clients
	feedClient := feed.NewClient(*feedEndpoint)
	marketClient := market.NewClient(*marketEndpoint)
	cachedMarket := market.NewCached(marketClient, *marketTTL, metrics, logger)
	genClient := generator.NewClient(*generatorEndpoint)

	// Broadcast hubs: global trade feed and per-token terminal content
	tradeFeed := hub.NewWithMetrics(logger, metrics, "trades")
	contentFeed := hub.NewWithMetrics(logger, metrics, "terminal")

	engine := quests.NewEngine(quests.Options{
		TokenStore:  stores.tokenStore,
		TradeStore:  stores.tradeStore,
		WalletStore: stores.walletStore,
		Logger:      logger,
	})

	aggregator := ingestion.NewAggregator(ingestion.AggregatorOptions{
		Source:      feedClient,
		TokenStore:  stores.tokenStore,
		TradeStore:  stores.tradeStore,
		Archive:     stores.archiveStore,
		WalletStore: stores.walletStore,
		Engine:      engine,
		TradeFeed:   tradeFeed,
		Metrics:     metrics,
		Logger:      logger,
	})

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Aggregator:        aggregator,
		TokenStore:        stores.tokenStore,
		Curve:             feedClient,
		Market:            cachedMarket,
		Engine:            engine,
		IngestInterval:    *ingestInterval,
		CurveInterval:     *curveInterval,
		MarketCapInterval: *mcapInterval,
		RankInterval:      *rankInterval,
		Metrics:           metrics,
		Logger:            logger,
	})

	terminals := terminal.NewManager(terminal.Config{
		Generator: genClient,
		Feed:      contentFeed,
		Interval:  *terminalInterval,
		Metrics:   metrics,
		Logger:    logger,
	})

	calculator := rewards.NewCalculator(rewards.CalculatorOptions{
		Config:  rewards.DefaultConfig(),
		Archive: stores.archiveStore,
		Price:   marketClient,
		Metrics: metrics,
		Logger:  logger,
	})

	// Bring up terminals for every tracked token
	tokens, err := stores.tokenStore.GetAll(ctx)
	if err != nil {
		logger.Fatalf("Failed to list tokens: %v", err)
	}
	for _, token := range tokens {
		terminals.Start(ctx, token)
	}
	logger.Printf("Started %d terminals", terminals.Running())

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Metrics and health endpoints
	go startHTTPServer(*metricsAddr, metrics, calculator, terminals, logger)

	// Run the ingestion schedules until shutdown
	err = runner.Run(ctx)
	terminals.StopAll()
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool, metrics *observability.Metrics) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			tokenStore:   memory.NewTokenStore(),
			tradeStore:   memory.NewTradeStore(),
			walletStore:  memory.NewWalletStore(),
			archiveStore: memory.NewTradeArchiveStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPoolWithMetrics(ctx, postgresDSN, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		tokenStore:   pgstore.NewTokenStore(pool),
		tradeStore:   pgstore.NewTradeStore(pool),
		walletStore:  pgstore.NewWalletStore(pool),
		archiveStore: chstore.NewTradeArchiveStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// startHTTPServer serves health, metrics, and a rewards snapshot.
func startHTTPServer(addr string, metrics *observability.Metrics, calculator *rewards.Calculator, terminals *terminal.Manager, logger *log.Logger) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Current reward allocation snapshot
	mux.HandleFunc("/rewards", func(w http.ResponseWriter, r *http.Request) {
		allocation := calculator.Compute(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(allocation)
	})

	// Terminal count for quick operational checks
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":            "running",
			"running_terminals": terminals.Running(),
		})
	})

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
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
