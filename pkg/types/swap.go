package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapParams holds the query parameters shared by price and quote requests.
// The same value must be used for both calls so the pair stays comparable.
type SwapParams struct {
	ChainID           int64
	SellToken         common.Address
	BuyToken          common.Address
	SellAmount        *big.Int
	Taker             common.Address
	AffiliateFeeBps   int
	SurplusCollection bool
}

// AllowanceIssue reports that the spender lacks sufficient authorization
// for the requested sell amount.
type AllowanceIssue struct {
	Spender string `json:"spender"`
	Actual  string `json:"actual"`
}

// Issues carries the problems the aggregator found with the requested swap.
// A nil Allowance means no approval transaction is required.
type Issues struct {
	Allowance *AllowanceIssue `json:"allowance"`
	Balance   json.RawMessage `json:"balance,omitempty"`
}

// Fill is one portion of a route executed against a single liquidity source.
type Fill struct {
	Source        string `json:"source"`
	ProportionBps string `json:"proportionBps"`
}

// Route describes how the swap is split across liquidity sources.
type Route struct {
	Fills  []Fill          `json:"fills"`
	Tokens json.RawMessage `json:"tokens,omitempty"`
}

// TokenTax holds transfer taxes for one token, in basis points.
type TokenTax struct {
	BuyTaxBps  string `json:"buyTaxBps"`
	SellTaxBps string `json:"sellTaxBps"`
}

// TokenMetadata holds tax information for both sides of the pair.
type TokenMetadata struct {
	BuyToken  *TokenTax `json:"buyToken"`
	SellToken *TokenTax `json:"sellToken"`
}

// PriceResponse is the aggregator's indicative price. It carries no
// transaction data.
type PriceResponse struct {
	LiquidityAvailable bool           `json:"liquidityAvailable"`
	BuyAmount          string         `json:"buyAmount"`
	SellAmount         string         `json:"sellAmount"`
	Issues             Issues         `json:"issues"`
	TokenMetadata      *TokenMetadata `json:"tokenMetadata"`
}

// SwapTransaction is the executable payload returned with a quote.
// It is carried for display; submitting it is outside this tool's scope.
type SwapTransaction struct {
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
}

// QuoteResponse is the firm quote: everything in a price response plus the
// concrete route and transaction data.
type QuoteResponse struct {
	LiquidityAvailable bool             `json:"liquidityAvailable"`
	BuyAmount          string           `json:"buyAmount"`
	SellAmount         string           `json:"sellAmount"`
	Issues             Issues           `json:"issues"`
	TokenMetadata      *TokenMetadata   `json:"tokenMetadata"`
	Route              Route            `json:"route"`
	Transaction        *SwapTransaction `json:"transaction"`
}

// SourcesResponse maps liquidity source names to their identifiers.
type SourcesResponse struct {
	Sources map[string]string `json:"sources"`
}
