package swap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerox-swap/pkg/approval"
	"zerox-swap/pkg/chain"
	"zerox-swap/pkg/types"
)

func init() {
	// Keep captured output free of escape sequences
	color.NoColor = true
}

type fakeAPI struct {
	sources    map[string]string
	sourcesErr error
	price      *types.PriceResponse
	priceErr   error
	quote      *types.QuoteResponse
	quoteErr   error

	priceParams *types.SwapParams
	quoteParams *types.SwapParams
	quoteCalled bool
}

func (f *fakeAPI) GetSources(ctx context.Context, chainID int64) (map[string]string, error) {
	if f.sourcesErr != nil {
		return nil, f.sourcesErr
	}
	return f.sources, nil
}

func (f *fakeAPI) GetPrice(ctx context.Context, params *types.SwapParams) (*types.PriceResponse, error) {
	f.priceParams = params
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.price, nil
}

func (f *fakeAPI) GetQuote(ctx context.Context, params *types.SwapParams) (*types.QuoteResponse, error) {
	f.quoteCalled = true
	f.quoteParams = params
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

type fakeToken struct {
	address     common.Address
	decimals    uint8
	decimalsErr error
}

func (f *fakeToken) Address() common.Address { return f.address }

func (f *fakeToken) Decimals(ctx context.Context) (uint8, error) {
	return f.decimals, f.decimalsErr
}

type fakeApprover struct {
	simulateErr error
	waitErr     error

	simulated bool
	submitted bool
	spender   common.Address
	amount    *big.Int
}

func (f *fakeApprover) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeApprover) SimulateApprove(ctx context.Context, spender common.Address, amount *big.Int) (uint64, error) {
	f.simulated = true
	f.spender = spender
	f.amount = amount
	if f.simulateErr != nil {
		return 0, f.simulateErr
	}
	return 50000, nil
}

func (f *fakeApprover) Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (*ethtypes.Transaction, error) {
	f.submitted = true
	return ethtypes.NewTransaction(1, spender, big.NewInt(0), gasLimit, big.NewInt(1), nil), nil
}

func (f *fakeApprover) WaitConfirmed(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	return &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

var (
	sellTokenAddr = common.HexToAddress("0x4200000000000000000000000000000000000006")
	buyTokenAddr  = common.HexToAddress("0xc1CBa3fCea344f92D9239c08C0568f6F2F0ee452")
	takerAddr     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender       = "0x000000000022D473030F116dDEE9F6B43aC78BA3"
)

func testConfig() Config {
	return Config{
		ChainID:           8453,
		BuyToken:          buyTokenAddr,
		Taker:             takerAddr,
		SellAmount:        "0.1",
		AffiliateFeeBps:   100,
		SurplusCollection: true,
	}
}

func quoteWithRoute() *types.QuoteResponse {
	return &types.QuoteResponse{
		LiquidityAvailable: true,
		Route: types.Route{Fills: []types.Fill{
			{Source: "A", ProportionBps: "6000"},
			{Source: "B", ProportionBps: "4000"},
		}},
		TokenMetadata: &types.TokenMetadata{
			SellToken: &types.TokenTax{BuyTaxBps: "0", SellTaxBps: "0"},
			BuyToken:  &types.TokenTax{BuyTaxBps: "100", SellTaxBps: "0"},
		},
	}
}

func newTestOrchestrator(api *fakeAPI, token *fakeApprover, cfg Config, out *bytes.Buffer) *Orchestrator {
	sellToken := &fakeToken{address: sellTokenAddr, decimals: 18}
	return NewOrchestrator(api, sellToken, approval.NewCoordinator(token, takerAddr), cfg, out)
}

func TestRunWithoutAllowanceIssue(t *testing.T) {
	api := &fakeAPI{
		sources: map[string]string{"A": "a", "B": "b"},
		price:   &types.PriceResponse{LiquidityAvailable: true},
		quote:   quoteWithRoute(),
	}
	token := &fakeApprover{}
	var out bytes.Buffer

	summary, err := newTestOrchestrator(api, token, testConfig(), &out).Run(context.Background())
	require.NoError(t, err)

	// No approval activity when the allowance issue is absent
	assert.False(t, token.simulated)
	assert.False(t, token.submitted)
	assert.Equal(t, approval.StateAlreadyApproved, summary.Approval.State)
	assert.Contains(t, out.String(), "already approved")

	// Price and quote use the identical parameter set
	require.NotNil(t, api.priceParams)
	assert.Same(t, api.priceParams, api.quoteParams)

	// "0.1" at 18 decimals, exactly
	want, _ := new(big.Int).SetString("100000000000000000", 10)
	assert.Zero(t, api.priceParams.SellAmount.Cmp(want))

	// Report built from the quote's fills and taxes
	require.NotNil(t, summary.Liquidity)
	assert.Equal(t, 2, summary.Liquidity.Count)
	assert.Contains(t, out.String(), "2 Sources")
	assert.Contains(t, out.String(), "A: 60.00%")
	assert.Contains(t, out.String(), "B: 40.00%")
	assert.Contains(t, out.String(), "Buy Token Buy Tax: 1.00%")
	assert.NotContains(t, out.String(), "Sell Token")
}

func TestRunApprovesWhenIssuePresent(t *testing.T) {
	api := &fakeAPI{
		price: &types.PriceResponse{
			LiquidityAvailable: true,
			Issues:             types.Issues{Allowance: &types.AllowanceIssue{Spender: spender, Actual: "0"}},
		},
		quote: quoteWithRoute(),
	}
	token := &fakeApprover{}
	var out bytes.Buffer

	summary, err := newTestOrchestrator(api, token, testConfig(), &out).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, token.simulated)
	assert.True(t, token.submitted)
	assert.Equal(t, common.HexToAddress(spender), token.spender)
	assert.Zero(t, token.amount.Cmp(chain.MaxUint256))
	assert.Equal(t, approval.StateConfirmed, summary.Approval.State)
	assert.True(t, api.quoteCalled, "quote must follow a confirmed approval")
	assert.Contains(t, out.String(), "Current allowance for "+common.HexToAddress(spender).Hex())
}

type fakeProgress struct {
	messages []string
	active   bool
	stops    int
}

func (f *fakeProgress) Start(message string) {
	f.messages = append(f.messages, message)
	f.active = true
}

func (f *fakeProgress) Stop() {
	f.active = false
	f.stops++
}

func TestRunReportsStepProgress(t *testing.T) {
	api := &fakeAPI{
		price: &types.PriceResponse{LiquidityAvailable: true},
		quote: quoteWithRoute(),
	}
	var out bytes.Buffer
	orchestrator := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out)

	progress := &fakeProgress{}
	orchestrator.SetProgress(progress)

	_, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, progress.messages, 4)
	assert.Contains(t, progress.messages[0], "sources")
	assert.Contains(t, progress.messages[1], "price")
	assert.Contains(t, progress.messages[2], "allowance")
	assert.Contains(t, progress.messages[3], "quote")
	assert.Equal(t, len(progress.messages), progress.stops, "every step must stop its indicator")
	assert.False(t, progress.active, "indicator must be stopped when the run ends")
}

func TestRunSourcesFailureIsNonFatal(t *testing.T) {
	api := &fakeAPI{
		sourcesErr: fmt.Errorf("service unavailable"),
		price:      &types.PriceResponse{LiquidityAvailable: true},
		quote:      quoteWithRoute(),
	}
	var out bytes.Buffer

	_, err := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "failed to fetch liquidity sources")
	assert.True(t, api.quoteCalled)
}

func TestRunPriceFailureIsFatal(t *testing.T) {
	api := &fakeAPI{priceErr: fmt.Errorf("status 500")}
	var out bytes.Buffer

	_, err := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out).Run(context.Background())
	require.Error(t, err)
	assert.False(t, api.quoteCalled)
}

func TestRunQuoteFailureIsFatal(t *testing.T) {
	api := &fakeAPI{
		price:    &types.PriceResponse{LiquidityAvailable: true},
		quoteErr: fmt.Errorf("status 500"),
	}
	var out bytes.Buffer

	_, err := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out).Run(context.Background())
	require.Error(t, err)
}

func TestRunSimulationFailureContinuesToQuote(t *testing.T) {
	api := &fakeAPI{
		price: &types.PriceResponse{
			Issues: types.Issues{Allowance: &types.AllowanceIssue{Spender: spender, Actual: "0"}},
		},
		quote: quoteWithRoute(),
	}
	token := &fakeApprover{simulateErr: fmt.Errorf("insufficient funds")}
	var out bytes.Buffer

	summary, err := newTestOrchestrator(api, token, testConfig(), &out).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, token.submitted, "failed simulation must block submission")
	assert.Equal(t, approval.StateSimulationFailed, summary.Approval.State)
	assert.True(t, api.quoteCalled)
	assert.Contains(t, out.String(), "simulation failed")
}

func TestRunConfirmationFailurePolicy(t *testing.T) {
	newAPI := func() *fakeAPI {
		return &fakeAPI{
			price: &types.PriceResponse{
				Issues: types.Issues{Allowance: &types.AllowanceIssue{Spender: spender, Actual: "0"}},
			},
			quote: quoteWithRoute(),
		}
	}

	t.Run("default continues to quote", func(t *testing.T) {
		api := newAPI()
		token := &fakeApprover{waitErr: fmt.Errorf("timed out")}
		var out bytes.Buffer

		summary, err := newTestOrchestrator(api, token, testConfig(), &out).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, approval.StateConfirmationFailed, summary.Approval.State)
		assert.True(t, api.quoteCalled)
	})

	t.Run("strict mode aborts", func(t *testing.T) {
		api := newAPI()
		token := &fakeApprover{waitErr: fmt.Errorf("timed out")}
		cfg := testConfig()
		cfg.Strict = true
		var out bytes.Buffer

		_, err := newTestOrchestrator(api, token, cfg, &out).Run(context.Background())
		require.Error(t, err)
		assert.False(t, api.quoteCalled)
	})
}

func TestRunMalformedFillIsFatal(t *testing.T) {
	quote := quoteWithRoute()
	quote.Route.Fills[0].ProportionBps = "garbage"
	api := &fakeAPI{
		price: &types.PriceResponse{LiquidityAvailable: true},
		quote: quote,
	}
	var out bytes.Buffer

	_, err := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "liquidity breakdown")
}

func TestRunEmptyFills(t *testing.T) {
	api := &fakeAPI{
		price: &types.PriceResponse{LiquidityAvailable: true},
		quote: &types.QuoteResponse{
			LiquidityAvailable: true,
			Route:              types.Route{Fills: []types.Fill{}},
		},
	}
	var out bytes.Buffer

	summary, err := newTestOrchestrator(api, &fakeApprover{}, testConfig(), &out).Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, summary.Liquidity)
	assert.Equal(t, 0, summary.Liquidity.Count)
	assert.Contains(t, out.String(), "0 Sources")
	assert.NotContains(t, out.String(), "%")
}

func TestRunInvalidAmountIsFatal(t *testing.T) {
	api := &fakeAPI{price: &types.PriceResponse{}}
	cfg := testConfig()
	cfg.SellAmount = "0.0000000000000000001" // below one base unit at 18 decimals
	var out bytes.Buffer

	_, err := newTestOrchestrator(api, &fakeApprover{}, cfg, &out).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, api.priceParams)
}
