// Package pricing sizes purchases: it converts a fiat-equivalent target
// amount into smallest units of the funding asset using a live probe quote.
package pricing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-keepalive/internal/jupiter"
	"solana-keepalive/internal/solana"
)

const (
	// USDCMint is the reference stable asset used to derive an implied price.
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// usdcUnitsPerWhole is the smallest-unit scale of the reference asset.
	usdcUnitsPerWhole = 1_000_000

	// probeLamports is the fixed probe amount quoted against the reference
	// asset (0.001 SOL keeps the probe cheap and liquid).
	probeLamports = solana.LamportsPerSol / 1000

	// probeSlippageBps is the tolerance on the probe quote itself.
	probeSlippageBps = 50

	// minUSDPerSol floors the implied price so a degenerate probe quote
	// cannot blow up the division.
	minUSDPerSol = 0.01
)

// QuoteSource supplies route quotes for the probe conversion.
type QuoteSource interface {
	GetQuote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.Quote, error)
}

// Converter derives funding-asset amounts from USD targets.
type Converter struct {
	quotes      QuoteSource
	fundingMint string
	log         zerolog.Logger
}

// NewConverter creates a converter for the given funding asset.
func NewConverter(quotes QuoteSource, fundingMint string, log zerolog.Logger) *Converter {
	return &Converter{
		quotes:      quotes,
		fundingMint: fundingMint,
		log:         log,
	}
}

// USDToFundingUnits converts a USD target into lamports of the funding
// asset at the implied probe price. The result is floored to an integer and
// never less than 1: a zero-unit swap must never be attempted.
func (c *Converter) USDToFundingUnits(ctx context.Context, targetUSD decimal.Decimal) (int64, error) {
	quote, err := c.quotes.GetQuote(ctx, jupiter.QuoteParams{
		InputMint:   c.fundingMint,
		OutputMint:  USDCMint,
		Amount:      probeLamports,
		SlippageBps: probeSlippageBps,
	})
	if err != nil {
		return 0, fmt.Errorf("probe quote: %w", err)
	}

	usdcForProbe := float64(quote.OutAmount) / usdcUnitsPerWhole
	usdPerSol := usdcForProbe * float64(solana.LamportsPerSol/probeLamports)
	if usdPerSol < minUSDPerSol {
		usdPerSol = minUSDPerSol
	}

	target := targetUSD.InexactFloat64()
	lamports := int64(target / usdPerSol * float64(solana.LamportsPerSol))
	if lamports < 1 {
		lamports = 1
	}

	c.log.Debug().
		Str("target_usd", targetUSD.StringFixed(2)).
		Float64("usd_per_sol", usdPerSol).
		Int64("lamports", lamports).
		Msg("sized purchase from probe quote")

	return lamports, nil
}
