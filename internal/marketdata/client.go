package marketdata

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-keepalive/internal/httpclient"
)

// DefaultBaseURL is the public DexScreener tokens API.
const DefaultBaseURL = "https://api.dexscreener.com/tokens/v1"

// Client fetches trading-pair entries for a token.
type Client struct {
	http    *httpclient.Client
	baseURL string
	chain   string
}

// NewClient creates a market-data client for the given chain.
func NewClient(http *httpclient.Client, baseURL, chain string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: http, baseURL: baseURL, chain: chain}
}

// TokenPairs retrieves all pair entries for a token mint. The endpoint
// answers errors and rate limits with a 200 object body; anything that is
// not a pair array counts as no pairs, so only genuine transport failures
// surface as errors.
func (c *Client) TokenPairs(ctx context.Context, mint string) ([]Pair, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.chain, mint)

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, url, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch token pairs: %w", err)
	}

	var pairs []Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, nil
	}
	return pairs, nil
}
