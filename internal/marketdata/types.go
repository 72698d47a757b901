// Package marketdata queries a DexScreener-style market-data endpoint for
// trading-pair activity on the target token.
package marketdata

// Pair is one trading-pair entry from the tokens endpoint. Only the fields
// the activity monitor reads are declared.
type Pair struct {
	ChainID     string       `json:"chainId"`
	DexID       string       `json:"dexId"`
	PairAddress string       `json:"pairAddress"`
	BaseToken   Token        `json:"baseToken"`
	QuoteToken  Token        `json:"quoteToken"`
	PriceUsd    string       `json:"priceUsd"`
	Txns        Transactions `json:"txns"`
}

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Transactions holds per-window buy/sell counts.
type Transactions struct {
	M5  BuysSells `json:"m5"`
	H1  BuysSells `json:"h1"`
	H6  BuysSells `json:"h6"`
	H24 BuysSells `json:"h24"`
}

// BuysSells is a buy/sell transaction count bucket.
type BuysSells struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}
