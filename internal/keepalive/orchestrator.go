// Package keepalive runs the scheduling loop that keeps the target token's
// trading activity non-zero: check activity, buy when the market is silent,
// sleep, repeat.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-keepalive/internal/domain"
	"solana-keepalive/internal/executor"
	"solana-keepalive/internal/ledger"
	"solana-keepalive/internal/marketdata"
	"solana-keepalive/internal/solana"
	"solana-keepalive/internal/storage"
)

// ActivityMonitor reports recent trading activity on the target token.
type ActivityMonitor interface {
	Check(ctx context.Context) (marketdata.Activity, error)
}

// SpendGuard admits and records spends against the daily cap.
type SpendGuard interface {
	CanSpend(ctx context.Context, amount decimal.Decimal) (bool, error)
	RecordSpend(ctx context.Context, amount decimal.Decimal) error
}

// AmountConverter sizes a USD target in funding-asset smallest units.
type AmountConverter interface {
	USDToFundingUnits(ctx context.Context, targetUSD decimal.Decimal) (int64, error)
}

// SwapExecutor performs one swap and returns its confirmation signature.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, inputAmount int64) (string, error)
}

// BalanceReader checks account reachability at startup.
type BalanceReader interface {
	GetBalance(ctx context.Context, pubkey string) (uint64, error)
}

// Options for creating an Orchestrator.
type Options struct {
	Monitor   ActivityMonitor
	Guard     SpendGuard
	Converter AmountConverter
	Executor  SwapExecutor

	// Wallet and RPC are used for the startup readiness check. Both may be
	// nil in dry-run mode.
	Wallet *solana.Wallet
	RPC    BalanceReader

	// History receives one record per cycle. Optional.
	History storage.CycleRecordStore

	PublicKey      string
	MicroBuyUSD    decimal.Decimal
	FallbackBuyUSD decimal.Decimal
	CheckInterval  time.Duration

	DryRun      bool
	ForceBuyNow bool

	Logger zerolog.Logger
}

// Orchestrator ties the monitor, guard, converter and executor into the
// keep-alive loop with the primary/fallback retry policy.
type Orchestrator struct {
	monitor   ActivityMonitor
	guard     SpendGuard
	converter AmountConverter
	executor  SwapExecutor
	wallet    *solana.Wallet
	rpc       BalanceReader
	history   storage.CycleRecordStore

	publicKey      string
	microBuyUSD    decimal.Decimal
	fallbackBuyUSD decimal.Decimal
	checkInterval  time.Duration

	dryRun      bool
	forceBuyNow bool

	now func() time.Time
	log zerolog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		monitor:        opts.Monitor,
		guard:          opts.Guard,
		converter:      opts.Converter,
		executor:       opts.Executor,
		wallet:         opts.Wallet,
		rpc:            opts.RPC,
		history:        opts.History,
		publicKey:      opts.PublicKey,
		microBuyUSD:    opts.MicroBuyUSD,
		fallbackBuyUSD: opts.FallbackBuyUSD,
		checkInterval:  opts.CheckInterval,
		dryRun:         opts.DryRun,
		forceBuyNow:    opts.ForceBuyNow,
		now:            time.Now,
		log:            opts.Logger,
	}
}

// WithClock overrides the time source, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// EnsureWalletReady confirms the configured public key matches the secret
// material and that the account is reachable. Failure here is fatal:
// operating with mismatched credentials is unsafe.
func (o *Orchestrator) EnsureWalletReady(ctx context.Context) error {
	if o.dryRun {
		o.log.Info().Msg("dry run: skipping wallet readiness check")
		return nil
	}

	if o.wallet == nil || o.rpc == nil {
		return fmt.Errorf("wallet and RPC are required outside dry-run mode")
	}

	if err := o.wallet.VerifyPublicKey(o.publicKey); err != nil {
		return fmt.Errorf("wallet readiness: %w", err)
	}

	balance, err := o.rpc.GetBalance(ctx, o.publicKey)
	if err != nil {
		return fmt.Errorf("wallet readiness: fetch balance: %w", err)
	}

	o.log.Info().
		Float64("balance_sol", float64(balance)/float64(solana.LamportsPerSol)).
		Msg("wallet ready")

	return nil
}

// Run executes the keep-alive loop until ctx is cancelled. An in-flight
// cycle always finishes before the loop observes cancellation. With
// ForceBuyNow set, one buy is attempted and the method returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.EnsureWalletReady(ctx); err != nil {
		return err
	}

	if o.forceBuyNow {
		sig, err := o.doKeepAliveOnce(ctx, o.microBuyUSD)
		if err != nil {
			if sig != "" {
				o.log.Error().Err(err).Str("signature", sig).Msg("forced buy executed but spend not recorded")
			}
			o.log.Error().Err(err).Msg("forced buy failed")
			return err
		}
		o.log.Warn().Str("signature", sig).Msg("forced buy submitted")
		return nil
	}

	o.log.Info().
		Str("micro_buy_usd", o.microBuyUSD.StringFixed(2)).
		Str("fallback_buy_usd", o.fallbackBuyUSD.StringFixed(2)).
		Dur("check_interval", o.checkInterval).
		Bool("dry_run", o.dryRun).
		Msg("keep-alive loop starting")

	for {
		o.runCycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.checkInterval):
		}
	}
}

// runCycle executes one cycle. A failing cycle is logged and swallowed: a
// single cycle's failure must never terminate the process.
func (o *Orchestrator) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("cycle panicked")
		}
	}()

	record := &domain.CycleRecord{Timestamp: o.now().UTC()}
	defer o.saveRecord(ctx, record)

	activity, err := o.monitor.Check(ctx)
	if err != nil {
		o.log.Error().Err(err).Msg("activity check failed")
		record.Action = domain.ActionError
		record.Error = err.Error()
		return
	}

	record.Active = activity.Active
	record.Buys = activity.Buys
	record.Sells = activity.Sells

	if activity.Active {
		o.log.Info().
			Str("window", activity.Window).
			Int("buys", activity.Buys).
			Int("sells", activity.Sells).
			Msg("activity ok, no buy")
		record.Action = domain.ActionNone
		return
	}

	o.log.Warn().
		Str("window", activity.Window).
		Str("amount_usd", o.microBuyUSD.StringFixed(2)).
		Msg("market inactive, buying")

	o.attemptBuy(ctx, record)
}

// attemptBuy runs the primary purchase and at most one fallback attempt
// with the larger amount. Fallback failure ends the cycle without raising.
func (o *Orchestrator) attemptBuy(ctx context.Context, record *domain.CycleRecord) {
	sig, err := o.doKeepAliveOnce(ctx, o.microBuyUSD)
	if err == nil {
		o.markBuy(record, domain.ActionBuy, o.microBuyUSD, sig)
		o.log.Warn().Str("signature", sig).Msg("buy succeeded")
		return
	}

	// A signature with an error means the swap went through and only the
	// ledger write failed. A fallback here would be a second real transfer
	// against an undercounted cap.
	if sig != "" {
		o.log.Error().Err(err).
			Str("signature", sig).
			Str("amount_usd", o.microBuyUSD.StringFixed(2)).
			Msg("spend executed but not recorded")
		o.markBuy(record, domain.ActionBuy, o.microBuyUSD, sig)
		record.Error = err.Error()
		return
	}

	o.log.Error().Err(err).Msg("primary buy failed")
	record.Action = domain.ActionError
	record.Error = err.Error()
	if errors.Is(err, ledger.ErrBudgetExceeded) {
		record.Action = domain.ActionRejected
	}

	if !o.microBuyUSD.LessThan(o.fallbackBuyUSD) {
		return
	}
	ok, guardErr := o.guard.CanSpend(ctx, o.fallbackBuyUSD)
	if guardErr != nil {
		o.log.Error().Err(guardErr).Msg("fallback admission check failed")
		return
	}
	if !ok {
		o.log.Warn().
			Str("amount_usd", o.fallbackBuyUSD.StringFixed(2)).
			Msg("fallback amount not admissible, skipping")
		return
	}

	o.log.Warn().
		Str("amount_usd", o.fallbackBuyUSD.StringFixed(2)).
		Msg("retrying with fallback amount")

	sig, err = o.doKeepAliveOnce(ctx, o.fallbackBuyUSD)
	if err != nil {
		if sig != "" {
			o.log.Error().Err(err).
				Str("signature", sig).
				Str("amount_usd", o.fallbackBuyUSD.StringFixed(2)).
				Msg("spend executed but not recorded")
			o.markBuy(record, domain.ActionFallbackBuy, o.fallbackBuyUSD, sig)
			record.Error = err.Error()
			return
		}
		o.log.Error().Err(err).Msg("fallback buy failed")
		record.Error = err.Error()
		return
	}

	o.markBuy(record, domain.ActionFallbackBuy, o.fallbackBuyUSD, sig)
	o.log.Warn().Str("signature", sig).Msg("fallback buy succeeded")
}

// doKeepAliveOnce runs one admission → sizing → execution → recording
// sequence and returns the confirmation signature.
func (o *Orchestrator) doKeepAliveOnce(ctx context.Context, amountUSD decimal.Decimal) (string, error) {
	ok, err := o.guard.CanSpend(ctx, amountUSD)
	if err != nil {
		return "", fmt.Errorf("spend admission: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("spend %s rejected: %w", amountUSD.StringFixed(2), ledger.ErrBudgetExceeded)
	}

	units, err := o.converter.USDToFundingUnits(ctx, amountUSD)
	if err != nil {
		return "", fmt.Errorf("size purchase: %w", err)
	}

	sig, err := o.executor.ExecuteSwap(ctx, units)
	if err != nil {
		return "", fmt.Errorf("execute swap: %w", err)
	}

	// Simulated executions move no funds and must not be recorded. A
	// recording failure after a real swap returns the signature alongside
	// the error: funds moved even though the ledger write failed.
	if !o.dryRun {
		if err := o.guard.RecordSpend(ctx, amountUSD); err != nil {
			return sig, fmt.Errorf("record spend after swap %s: %w", sig, err)
		}
	}

	return sig, nil
}

func (o *Orchestrator) markBuy(record *domain.CycleRecord, action string, amount decimal.Decimal, sig string) {
	record.Action = action
	record.AmountUSD = amount
	record.Signature = sig
	record.Error = ""
	if sig == executor.DryRunSignature {
		record.Action = domain.ActionDryRun
	}
}

func (o *Orchestrator) saveRecord(ctx context.Context, record *domain.CycleRecord) {
	if o.history == nil {
		return
	}
	if err := o.history.Insert(ctx, record); err != nil {
		o.log.Warn().Err(err).Msg("failed to save cycle record")
	}
}
