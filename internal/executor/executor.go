// Package executor performs the swap request/sign/submit sequence.
package executor

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"solana-keepalive/internal/jupiter"
	"solana-keepalive/internal/solana"
)

// DryRunSignature is the sentinel returned for simulated executions. No
// real confirmation identifier can collide with it.
const DryRunSignature = "dryrun-sig"

// RouteClient supplies route quotes and unsigned swap transactions.
type RouteClient interface {
	GetQuote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
	BuildSwap(ctx context.Context, quote *jupiter.Quote, userPublicKey string) (string, error)
}

// Signer produces detached signatures bound to the wallet key.
type Signer interface {
	PublicKey() string
	SignMessage(msg []byte) []byte
}

// Submitter sends signed transactions to the network.
type Submitter interface {
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)
}

// ConfirmWaiter blocks until a submitted signature is confirmed.
type ConfirmWaiter interface {
	WaitForSignature(ctx context.Context, signature string) error
}

// Options for creating an Executor.
type Options struct {
	Routes    RouteClient
	Signer    Signer // may be nil in dry-run mode
	RPC       Submitter
	Confirmer ConfirmWaiter // optional; nil skips the confirmation wait

	InputMint   string
	OutputMint  string
	SlippageBps int

	OnlyDirectRoutes           bool
	RestrictIntermediateTokens bool

	DryRun bool

	Logger zerolog.Logger
}

// Executor turns an input amount into a submitted swap: quote, build, sign,
// submit, confirm.
type Executor struct {
	routes    RouteClient
	signer    Signer
	rpc       Submitter
	confirmer ConfirmWaiter

	inputMint   string
	outputMint  string
	slippageBps int

	onlyDirectRoutes           bool
	restrictIntermediateTokens bool

	dryRun bool
	log    zerolog.Logger
}

// New creates an Executor.
func New(opts Options) *Executor {
	return &Executor{
		routes:                     opts.Routes,
		signer:                     opts.Signer,
		rpc:                        opts.RPC,
		confirmer:                  opts.Confirmer,
		inputMint:                  opts.InputMint,
		outputMint:                 opts.OutputMint,
		slippageBps:                opts.SlippageBps,
		onlyDirectRoutes:           opts.OnlyDirectRoutes,
		restrictIntermediateTokens: opts.RestrictIntermediateTokens,
		dryRun:                     opts.DryRun,
		log:                        opts.Logger,
	}
}

// ExecuteSwap swaps inputAmount smallest units of the funding asset into
// the target asset and returns the confirmation signature. In dry-run mode
// it returns DryRunSignature after the quote step without moving funds.
func (e *Executor) ExecuteSwap(ctx context.Context, inputAmount int64) (string, error) {
	e.log.Info().
		Int64("input_amount", inputAmount).
		Int("slippage_bps", e.slippageBps).
		Msg("requesting swap quote")

	quote, err := e.routes.GetQuote(ctx, jupiter.QuoteParams{
		InputMint:                  e.inputMint,
		OutputMint:                 e.outputMint,
		Amount:                     inputAmount,
		SlippageBps:                e.slippageBps,
		OnlyDirectRoutes:           e.onlyDirectRoutes,
		RestrictIntermediateTokens: e.restrictIntermediateTokens,
	})
	if err != nil {
		return "", fmt.Errorf("quote swap: %w", err)
	}

	if e.dryRun {
		e.log.Warn().
			Int64("input_amount", inputAmount).
			Int64("expected_out", quote.OutAmount).
			Msg("dry run: skipping swap submission")
		return DryRunSignature, nil
	}

	txB64, err := e.routes.BuildSwap(ctx, quote, e.signer.PublicKey())
	if err != nil {
		return "", fmt.Errorf("build swap: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(txB64)
	if err != nil {
		return "", fmt.Errorf("decode swap transaction: %w", err)
	}

	tx, err := solana.DecodeTransaction(raw)
	if err != nil {
		return "", fmt.Errorf("parse swap transaction: %w", err)
	}

	// Detached signature over the exact message bytes the service supplied.
	// Slot 0 is the fee payer, which is the wallet for these transactions.
	sig := e.signer.SignMessage(tx.Message)
	if err := tx.AttachSignature(0, sig); err != nil {
		return "", fmt.Errorf("attach signature: %w", err)
	}

	signature, err := e.rpc.SendTransaction(ctx, tx.Bytes())
	if err != nil {
		return "", fmt.Errorf("submit swap: %w", err)
	}

	if e.confirmer != nil {
		if err := e.confirmer.WaitForSignature(ctx, signature); err != nil {
			// The transaction was accepted; confirmation is best-effort.
			e.log.Warn().Str("signature", signature).Err(err).Msg("confirmation wait failed")
		}
	}

	e.log.Info().Str("signature", signature).Msg("swap submitted")
	return signature, nil
}
