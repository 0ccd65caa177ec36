// Package main provides the custody bank daemon: the HTTP API over the
// ledger, the asset registry, price feeds and the custody gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"custody-ledger/internal/access"
	"custody-ledger/internal/domain"
	"custody-ledger/internal/ledger"
	"custody-ledger/internal/normalization"
	"custody-ledger/internal/oracle"
	"custody-ledger/internal/registry"
	"custody-ledger/internal/storage"
	chstore "custody-ledger/internal/storage/clickhouse"
	"custody-ledger/internal/storage/memory"
	"custody-ledger/internal/storage/migrations"
	pgstore "custody-ledger/internal/storage/postgres"
	"custody-ledger/internal/transfer"
)

// allStores holds all storage implementations.
type allStores struct {
	balanceStore   storage.BalanceStore
	assetStore     storage.AssetStore
	bankStateStore storage.BankStateStore
	eventStore     storage.LedgerEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	admin := flag.String("admin", os.Getenv("BANK_ADMIN"), "Administrator principal (base58)")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("PRICE_FEED_ENDPOINT"), "Price feed JSON-RPC HTTP endpoint")
	wsFeedEndpoint := flag.String("ws-feed-endpoint", os.Getenv("PRICE_FEED_WS_ENDPOINT"), "Price feed WebSocket endpoint (optional, preferred over HTTP when set)")
	nativeFeed := flag.String("native-feed", envOr("NATIVE_PRICE_FEED", "native-usd"), "Price feed reference for the native asset")
	gatewayEndpoint := flag.String("gateway-endpoint", os.Getenv("CUSTODY_GATEWAY_ENDPOINT"), "Custody gateway JSON-RPC endpoint (empty: in-process mock)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, event analytics)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	bankCap := flag.Uint64("bank-cap-usd", 50_000, "Bank-wide capacity cap in whole dollars")
	withdrawalLimit := flag.Uint64("withdrawal-limit-usd", 5_000, "Per-withdrawal limit in whole dollars")
	listenAddr := flag.String("listen-addr", ":8080", "HTTP API listen address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[bankd] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *admin == "" {
		logger.Fatal("--admin is required")
	}
	adminPrincipal := domain.Principal(*admin)
	if err := adminPrincipal.Validate(); err != nil {
		logger.Fatalf("--admin is not a valid principal: %v", err)
	}
	if *feedEndpoint == "" && *wsFeedEndpoint == "" {
		logger.Fatal("--feed-endpoint or --ws-feed-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Price source: WebSocket stream when configured, HTTP otherwise.
	// The registry subscribes streaming feeds (native, stored assets,
	// newly listed assets) so the cache fills before anyone asks.
	var source oracle.Source
	var feeds registry.FeedSubscriber
	if *wsFeedEndpoint != "" {
		wsSource, err := oracle.NewWSSource(ctx, *wsFeedEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to connect price feed websocket: %v", err)
		}
		defer wsSource.Close()
		source = wsSource
		feeds = wsSource
	} else {
		source = oracle.NewHTTPSource(*feedEndpoint)
	}
	prices := oracle.NewAdapter(source)

	// Registry with the native asset installed
	reg, err := registry.New(ctx, registry.Options{
		AssetStore: stores.assetStore,
		EventStore: stores.eventStore,
		Prices:     prices,
		Feeds:      feeds,
		Access:     access.NewController(adminPrincipal),
		NativeFeed: *nativeFeed,
		Logger:     log.New(os.Stdout, "[registry] ", log.LstdFlags),
	})
	if err != nil {
		logger.Fatalf("Failed to create registry: %v", err)
	}

	// Custody executor
	var executor transfer.Executor
	if *gatewayEndpoint != "" {
		executor = transfer.NewGatewayExecutor(*gatewayEndpoint)
	} else {
		logger.Println("No custody gateway configured, using in-process mock executor")
		executor = transfer.NewMockExecutor()
	}

	bank := ledger.NewBank(ledger.Options{
		BalanceStore:       stores.balanceStore,
		BankStateStore:     stores.bankStateStore,
		EventStore:         stores.eventStore,
		Registry:           reg,
		Engine:             normalization.NewConverter(reg, prices),
		Executor:           executor,
		WithdrawalLimitUSD: domain.USD(*withdrawalLimit),
		BankCapUSD:         domain.USD(*bankCap),
		Logger:             log.New(os.Stdout, "[ledger] ", log.LstdFlags),
	})

	api := newAPIServer(bank, reg, stores.eventStore, logger)

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: api.routes(),
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}

		// Wait for second signal for immediate shutdown
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

	logger.Printf("Listening on %s (cap=%s limit=%s admin=%s)",
		*listenAddr, domain.USD(*bankCap), domain.USD(*withdrawalLimit), adminPrincipal)

	err = httpServer.ListenAndServe()
	close(done)

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			balanceStore:   memory.NewBalanceStore(),
			assetStore:     memory.NewAssetStore(),
			bankStateStore: memory.NewBankStateStore(),
			eventStore:     memory.NewLedgerEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &allStores{
		balanceStore:   pgstore.NewBalanceStore(pool),
		assetStore:     pgstore.NewAssetStore(pool),
		bankStateStore: pgstore.NewBankStateStore(pool),
		eventStore:     pgstore.NewLedgerEventStore(pool),
	}

	cleanup := func() { pool.Close() }

	// ClickHouse event analytics is optional; when configured, events go
	// there instead of PostgreSQL.
	if clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.eventStore = chstore.NewLedgerEventStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// envOr returns the env var value or a default.
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
