// Package config loads the agent's immutable configuration bundle from the
// environment once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults for optional settings.
const (
	DefaultChain         = "solana"
	DefaultTargetMint    = "charyAhpBstVjf5VnszNiY8UUVDbvA167dQJqpBY2hw"
	DefaultFundingMint   = "So11111111111111111111111111111111111111112" // wSOL
	DefaultRPCURL        = "https://api.mainnet-beta.solana.com"
	DefaultSlippageBps   = 100
	DefaultCheckInterval = 15 * time.Minute
	DefaultDailyCapUSD   = "1.00"
	DefaultLogLevel      = "info"
)

// Activity windows: 24h in production, 1m under test mode.
const (
	ProductionActivityWindow = 24 * time.Hour
	TestActivityWindow       = time.Minute
)

// Config is the immutable configuration bundle, created at process start
// and never mutated.
type Config struct {
	// Assets
	Chain       string
	TargetMint  string
	FundingMint string

	// Wallet. WalletSecret is held in memory only and must never be logged.
	PublicKey    string
	WalletSecret string

	// Endpoints (empty means the client's public default)
	RPCURL        string
	WSURL         string
	MarketDataURL string
	QuoteURL      string
	SwapURL       string

	// Purchase sizing
	MicroBuyUSD    decimal.Decimal
	FallbackBuyUSD decimal.Decimal
	DailyCapUSD    decimal.Decimal
	SlippageBps    int

	// Routing-restriction policy
	OnlyDirectRoutes           bool
	RestrictIntermediateTokens bool

	// Scheduling
	CheckInterval  time.Duration
	ActivityWindow time.Duration

	// Operating modes
	DryRun       bool
	TestMode     bool
	ForceBuyNow  bool
	MockInactive bool

	// Storage (empty selects the in-memory implementations)
	PostgresDSN   string
	ClickhouseDSN string

	// Logging
	LogLevel  string
	LogFormat string // json|console
}

// Load reads configuration from the environment, applying defaults where
// safe. Amount fields are required.
func Load() (*Config, error) {
	cfg := &Config{
		Chain:         envOr("CHAIN", DefaultChain),
		TargetMint:    envOr("TARGET_MINT", DefaultTargetMint),
		FundingMint:   envOr("FUNDING_MINT", DefaultFundingMint),
		PublicKey:     os.Getenv("PUBLIC_KEY"),
		WalletSecret:  os.Getenv("WALLET_SECRET_B58"),
		RPCURL:        envOr("RPC_URL", DefaultRPCURL),
		WSURL:         os.Getenv("WS_URL"),
		MarketDataURL: os.Getenv("MARKET_DATA_URL"),
		QuoteURL:      os.Getenv("QUOTE_URL"),
		SwapURL:       os.Getenv("SWAP_URL"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		LogLevel:      envOr("LOG_LEVEL", DefaultLogLevel),
		LogFormat:     envOr("LOG_FORMAT", "console"),
	}

	var err error
	if cfg.MicroBuyUSD, err = requiredDecimal("MICRO_BUY_USD"); err != nil {
		return nil, err
	}
	if cfg.FallbackBuyUSD, err = requiredDecimal("FALLBACK_BUY_USD"); err != nil {
		return nil, err
	}
	if cfg.DailyCapUSD, err = decimalOr("MAX_DAILY_USD", DefaultDailyCapUSD); err != nil {
		return nil, err
	}
	if cfg.SlippageBps, err = intOr("SLIPPAGE_BPS", DefaultSlippageBps); err != nil {
		return nil, err
	}

	intervalSec, err := intOr("CHECK_INTERVAL_SECONDS", int(DefaultCheckInterval.Seconds()))
	if err != nil {
		return nil, err
	}
	cfg.CheckInterval = time.Duration(intervalSec) * time.Second

	cfg.DryRun = boolEnv("DRY_RUN")
	cfg.TestMode = boolEnv("TEST_MODE")
	cfg.ForceBuyNow = boolEnv("FORCE_BUY_NOW")
	cfg.MockInactive = boolEnv("MOCK_INACTIVE")
	cfg.OnlyDirectRoutes = boolEnv("ONLY_DIRECT_ROUTES")
	cfg.RestrictIntermediateTokens = boolEnv("RESTRICT_INTERMEDIATE_TOKENS")

	cfg.ActivityWindow = ProductionActivityWindow
	if cfg.TestMode {
		cfg.ActivityWindow = TestActivityWindow
	}

	return cfg, nil
}

// Validate checks that the configuration is safe to operate with.
// Credential checks are skipped in dry-run mode, which never signs.
func (c *Config) Validate() error {
	if !c.DryRun {
		if c.PublicKey == "" || c.WalletSecret == "" {
			return fmt.Errorf("PUBLIC_KEY and WALLET_SECRET_B58 are required outside dry-run mode")
		}
	}
	if c.MicroBuyUSD.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("MICRO_BUY_USD must be positive")
	}
	if c.FallbackBuyUSD.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("FALLBACK_BUY_USD must be positive")
	}
	if c.DailyCapUSD.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("MAX_DAILY_USD must be positive")
	}
	if c.SlippageBps <= 0 {
		return fmt.Errorf("SLIPPAGE_BPS must be positive")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_SECONDS must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func intOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func decimalOr(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func requiredDecimal(key string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
