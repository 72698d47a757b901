// Command keepalive runs the token keep-alive agent: it watches the target
// token's trading activity and issues small budget-capped purchases through
// the swap-routing service whenever the market goes silent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"solana-keepalive/internal/config"
	"solana-keepalive/internal/executor"
	"solana-keepalive/internal/httpclient"
	"solana-keepalive/internal/jupiter"
	"solana-keepalive/internal/keepalive"
	"solana-keepalive/internal/ledger"
	"solana-keepalive/internal/marketdata"
	"solana-keepalive/internal/pricing"
	"solana-keepalive/internal/solana"
	"solana-keepalive/internal/storage"
	chstore "solana-keepalive/internal/storage/clickhouse"
	"solana-keepalive/internal/storage/memory"
	"solana-keepalive/internal/storage/migrations"
	pgstore "solana-keepalive/internal/storage/postgres"
)

func main() {
	// Parse flags. Flags override the environment for operational knobs.
	dryRun := flag.Bool("dry-run", false, "Simulate swaps without submitting transactions")
	forceBuy := flag.Bool("force-buy", false, "Attempt one buy immediately and exit")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage even when DSNs are configured")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the durable spend ledger")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for cycle history")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *forceBuy {
		cfg.ForceBuyNow = true
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	if *useMemory {
		cfg.PostgresDSN = ""
		cfg.ClickhouseDSN = ""
	}

	logger := setupLogging(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("configuration validation failed")
	}

	logger.Info().
		Str("target_mint", cfg.TargetMint).
		Str("funding_mint", cfg.FundingMint).
		Dur("check_interval", cfg.CheckInterval).
		Dur("activity_window", cfg.ActivityWindow).
		Bool("dry_run", cfg.DryRun).
		Bool("test_mode", cfg.TestMode).
		Bool("force_buy", cfg.ForceBuyNow).
		Bool("mock_inactive", cfg.MockInactive).
		Msg("configuration loaded")

	// Create context with cancellation for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals: first signal lets the in-flight cycle finish,
	// a second one forces immediate exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down, letting the current cycle finish")
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("agent stopped")
	}

	close(done)
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	httpc := httpclient.New(logger.With().Str("component", "http").Logger())

	market := marketdata.NewClient(httpc, cfg.MarketDataURL, cfg.Chain)
	monitor := marketdata.NewMonitor(
		market, cfg.TargetMint, cfg.ActivityWindow, cfg.MockInactive,
		logger.With().Str("component", "monitor").Logger(),
	)

	routes := jupiter.NewClient(httpc, cfg.QuoteURL, cfg.SwapURL)
	converter := pricing.NewConverter(
		routes, cfg.FundingMint,
		logger.With().Str("component", "pricing").Logger(),
	)

	// Spend ledger: durable when a Postgres DSN is configured.
	var spendStore storage.SpendEventStore = memory.NewSpendEventStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		spendStore = pgstore.NewSpendEventStore(pool)
		logger.Info().Msg("spend ledger: postgres (durable)")
	} else {
		logger.Info().Msg("spend ledger: in-memory (resets on restart)")
	}

	guard := ledger.NewGuard(spendStore, cfg.DailyCapUSD,
		logger.With().Str("component", "guard").Logger())

	// Cycle history: ClickHouse when configured, in-memory otherwise.
	var history storage.CycleRecordStore = memory.NewCycleRecordStore()
	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}

		history = chstore.NewCycleRecordStore(conn)
		logger.Info().Msg("cycle history: clickhouse")
	}

	rpc := solana.NewHTTPClient(cfg.RPCURL)

	var wallet *solana.Wallet
	if !cfg.DryRun {
		var err error
		wallet, err = solana.NewWalletFromBase58(cfg.WalletSecret)
		if err != nil {
			return fmt.Errorf("load wallet: %w", err)
		}
	}

	execOpts := executor.Options{
		Routes:                     routes,
		RPC:                        rpc,
		InputMint:                  cfg.FundingMint,
		OutputMint:                 cfg.TargetMint,
		SlippageBps:                cfg.SlippageBps,
		OnlyDirectRoutes:           cfg.OnlyDirectRoutes,
		RestrictIntermediateTokens: cfg.RestrictIntermediateTokens,
		DryRun:                     cfg.DryRun,
		Logger:                     logger.With().Str("component", "executor").Logger(),
	}
	if wallet != nil {
		execOpts.Signer = wallet
	}
	if cfg.WSURL != "" {
		execOpts.Confirmer = solana.NewConfirmer(cfg.WSURL, 0)
	}

	orch := keepalive.New(keepalive.Options{
		Monitor:        monitor,
		Guard:          guard,
		Converter:      converter,
		Executor:       executor.New(execOpts),
		Wallet:         wallet,
		RPC:            rpc,
		History:        history,
		PublicKey:      cfg.PublicKey,
		MicroBuyUSD:    cfg.MicroBuyUSD,
		FallbackBuyUSD: cfg.FallbackBuyUSD,
		CheckInterval:  cfg.CheckInterval,
		DryRun:         cfg.DryRun,
		ForceBuyNow:    cfg.ForceBuyNow,
		Logger:         logger.With().Str("component", "keepalive").Logger(),
	})

	return orch.Run(ctx)
}

// setupLogging configures the process logger from config.
func setupLogging(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "json" {
		logger = zerolog.New(os.Stdout)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Logger()
}
