// Package jupiter is a client for the Jupiter v6 swap-routing service:
// route quotes and swap-transaction construction.
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"solana-keepalive/internal/httpclient"
)

// Default public API endpoints.
const (
	DefaultQuoteURL = "https://quote-api.jup.ag/v6/quote"
	DefaultSwapURL  = "https://quote-api.jup.ag/v6/swap"
)

var (
	// ErrNoRoute is returned when the quote endpoint yields no route data.
	ErrNoRoute = errors.New("no route returned for quote")

	// ErrMissingOutAmount is returned when a quote lacks the outAmount field.
	ErrMissingOutAmount = errors.New("quote response missing outAmount")

	// ErrNoSwapTransaction is returned when the swap-build endpoint returns
	// no transaction payload.
	ErrNoSwapTransaction = errors.New("swap response missing swapTransaction")
)

// Quote is a priced execution plan. The route internals are opaque: Raw is
// passed through unmodified to the swap-build request, and only OutAmount
// is interpreted.
type Quote struct {
	InAmount  int64
	OutAmount int64
	Raw       json.RawMessage
}

// QuoteParams describe a route-quote request.
type QuoteParams struct {
	InputMint   string
	OutputMint  string
	Amount      int64 // smallest units of the input mint
	SlippageBps int

	// Route-restriction policy flags.
	OnlyDirectRoutes           bool
	RestrictIntermediateTokens bool
}

// Client talks to the quote and swap-build endpoints.
type Client struct {
	http     *httpclient.Client
	quoteURL string
	swapURL  string
}

// NewClient creates a routing-service client. Empty URLs fall back to the
// public Jupiter v6 API.
func NewClient(http *httpclient.Client, quoteURL, swapURL string) *Client {
	if quoteURL == "" {
		quoteURL = DefaultQuoteURL
	}
	if swapURL == "" {
		swapURL = DefaultSwapURL
	}
	return &Client{http: http, quoteURL: quoteURL, swapURL: swapURL}
}

// GetQuote requests a route quote. The full response is retained for the
// swap-build step.
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", p.InputMint)
	params.Set("outputMint", p.OutputMint)
	params.Set("amount", strconv.FormatInt(p.Amount, 10))
	params.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	params.Set("onlyDirectRoutes", strconv.FormatBool(p.OnlyDirectRoutes))
	params.Set("restrictIntermediateTokens", strconv.FormatBool(p.RestrictIntermediateTokens))
	params.Set("asLegacyTransaction", "false")

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, c.quoteURL, params, &raw); err != nil {
		return nil, fmt.Errorf("request quote: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrNoRoute
	}

	var fields struct {
		InAmount  string `json:"inAmount"`
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse quote response: %w", err)
	}
	if fields.OutAmount == "" {
		return nil, ErrMissingOutAmount
	}

	outAmount, err := strconv.ParseInt(fields.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse outAmount %q: %w", fields.OutAmount, err)
	}
	inAmount, _ := strconv.ParseInt(fields.InAmount, 10, 64)

	return &Quote{
		InAmount:  inAmount,
		OutAmount: outAmount,
		Raw:       raw,
	}, nil
}

// swapRequest is the swap-build request body.
type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	UseSharedAccounts         bool            `json:"useSharedAccounts"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	AsLegacyTransaction       bool            `json:"asLegacyTransaction"`
	PrioritizationFeeLamports string          `json:"prioritizationFeeLamports"`
}

// swapResponse is the swap-build response body.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// BuildSwap requests an unsigned swap transaction for the given quote.
// Returns the base64-encoded transaction payload.
func (c *Client) BuildSwap(ctx context.Context, quote *Quote, userPublicKey string) (string, error) {
	req := swapRequest{
		QuoteResponse:             quote.Raw,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		UseSharedAccounts:         false,
		DynamicComputeUnitLimit:   true,
		AsLegacyTransaction:       false,
		PrioritizationFeeLamports: "auto",
	}

	var resp swapResponse
	if err := c.http.PostJSON(ctx, c.swapURL, req, &resp); err != nil {
		return "", fmt.Errorf("request swap build: %w", err)
	}
	if resp.SwapTransaction == "" {
		return "", ErrNoSwapTransaction
	}

	return resp.SwapTransaction, nil
}
