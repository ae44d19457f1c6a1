package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"zerox-swap/pkg/approval"
	"zerox-swap/pkg/chain"
	"zerox-swap/pkg/report"
	"zerox-swap/pkg/types"
)

// API is the aggregator surface the orchestrator depends on.
// *client.ZeroExClient satisfies it.
type API interface {
	GetSources(ctx context.Context, chainID int64) (map[string]string, error)
	GetPrice(ctx context.Context, params *types.SwapParams) (*types.PriceResponse, error)
	GetQuote(ctx context.Context, params *types.SwapParams) (*types.QuoteResponse, error)
}

// Token is the sell token surface the orchestrator reads directly.
type Token interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
}

// Config holds the fixed parameters for one swap run.
type Config struct {
	ChainID           int64
	BuyToken          common.Address
	Taker             common.Address
	SellAmount        string // human-readable, converted via the token's decimals
	AffiliateFeeBps   int
	SurplusCollection bool

	// Strict aborts the run when an approval was submitted but its
	// confirmation failed; otherwise the run proceeds to the quote and a
	// re-run will find the allowance in place.
	Strict  bool
	Verbose bool
}

// Summary is the machine-readable outcome of a run.
type Summary struct {
	Sources   map[string]string          `json:"sources,omitempty"`
	Price     *types.PriceResponse       `json:"price"`
	Approval  *approval.Result           `json:"approval,omitempty"`
	Quote     *types.QuoteResponse       `json:"quote"`
	Liquidity *report.LiquidityBreakdown `json:"liquidity,omitempty"`
	Taxes     []report.TaxLine           `json:"taxes,omitempty"`
}

// Progress signals the start and end of each blocking step, typically
// backed by a terminal spinner.
type Progress interface {
	Start(message string)
	Stop()
}

// Orchestrator sequences the swap workflow: sources, price, allowance
// reconciliation, quote, reporting. Every network call is attempted exactly
// once and the steps run strictly in order.
type Orchestrator struct {
	api         API
	sellToken   Token
	coordinator *approval.Coordinator
	cfg         Config
	out         io.Writer
	progress    Progress
}

// NewOrchestrator wires the orchestrator from its collaborators. Console
// progress is written to out.
func NewOrchestrator(api API, sellToken Token, coordinator *approval.Coordinator, cfg Config, out io.Writer) *Orchestrator {
	return &Orchestrator{
		api:         api,
		sellToken:   sellToken,
		coordinator: coordinator,
		cfg:         cfg,
		out:         out,
	}
}

// SetProgress installs the step progress indicator.
func (o *Orchestrator) SetProgress(progress Progress) {
	o.progress = progress
}

func (o *Orchestrator) startStep(message string) {
	if o.progress != nil {
		o.progress.Start(message)
	}
}

func (o *Orchestrator) endStep() {
	if o.progress != nil {
		o.progress.Stop()
	}
}

// Run executes the workflow. Source discovery failures are logged and the
// run continues; price, quote, conversion, and report failures are fatal.
// The approval policy is in the Coordinator and the Strict flag.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	// Informational only; the swap does not depend on it
	o.startStep("Fetching liquidity sources...")
	sources, err := o.api.GetSources(ctx, o.cfg.ChainID)
	o.endStep()
	if err != nil {
		fmt.Fprintf(o.out, "%s\n", color.YellowString("Warning: failed to fetch liquidity sources: %v", err))
	} else {
		summary.Sources = sources
		o.displaySources(sources)
	}

	decimals, err := o.sellToken.Decimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sell token decimals: %w", err)
	}

	sellAmount, err := chain.ToBaseUnits(o.cfg.SellAmount, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid sell amount: %w", err)
	}

	// One parameter set, reused verbatim for price and quote
	params := &types.SwapParams{
		ChainID:           o.cfg.ChainID,
		SellToken:         o.sellToken.Address(),
		BuyToken:          o.cfg.BuyToken,
		SellAmount:        sellAmount,
		Taker:             o.cfg.Taker,
		AffiliateFeeBps:   o.cfg.AffiliateFeeBps,
		SurplusCollection: o.cfg.SurplusCollection,
	}

	o.startStep("Fetching price...")
	price, err := o.api.GetPrice(ctx, params)
	o.endStep()
	if err != nil {
		return nil, err
	}
	summary.Price = price
	o.dumpJSON("Price response", price)

	o.startStep("Reconciling allowance...")
	result := o.coordinator.Reconcile(ctx, price.Issues.Allowance)
	o.endStep()
	summary.Approval = result
	if err := o.reportApproval(result); err != nil {
		return summary, err
	}

	o.startStep("Fetching quote...")
	quote, err := o.api.GetQuote(ctx, params)
	o.endStep()
	if err != nil {
		return summary, err
	}
	summary.Quote = quote
	o.dumpJSON("Quote response", quote)

	if quote.Route.Fills != nil {
		breakdown, err := report.BuildLiquidityBreakdown(quote.Route.Fills)
		if err != nil {
			return summary, fmt.Errorf("failed to build liquidity breakdown: %w", err)
		}
		summary.Liquidity = breakdown
		o.displayLiquidity(breakdown)
	}

	if quote.TokenMetadata != nil {
		taxes, err := report.BuildTaxBreakdown(quote.TokenMetadata)
		if err != nil {
			return summary, fmt.Errorf("failed to build tax breakdown: %w", err)
		}
		summary.Taxes = taxes
		o.displayTaxes(taxes)
	}

	return summary, nil
}

func (o *Orchestrator) reportApproval(result *approval.Result) error {
	if result.CurrentAllowance != nil {
		fmt.Fprintf(o.out, "Current allowance for %s: %s\n", result.Spender.Hex(), color.CyanString(result.CurrentAllowance.String()))
	}

	switch result.State {
	case approval.StateAlreadyApproved:
		fmt.Fprintf(o.out, "%s\n", color.GreenString("Sell token already approved"))
	case approval.StateSimulationFailed:
		fmt.Fprintf(o.out, "%s\n", color.RedString("Approval simulation failed for spender %s: %v", result.Spender.Hex(), result.Err))
		fmt.Fprintf(o.out, "%s\n", color.YellowString("Sell token remains unapproved"))
	case approval.StateSubmissionFailed:
		fmt.Fprintf(o.out, "%s\n", color.RedString("Failed to submit approval for spender %s: %v", result.Spender.Hex(), result.Err))
	case approval.StateConfirmationFailed:
		fmt.Fprintf(o.out, "%s\n", color.RedString("Approval %s not confirmed: %v", result.TxHash, result.Err))
		if o.cfg.Strict {
			return fmt.Errorf("approval confirmation failed: %w", result.Err)
		}
		fmt.Fprintf(o.out, "%s\n", color.YellowString("Continuing; re-run once the approval is mined"))
	case approval.StateConfirmed:
		fmt.Fprintf(o.out, "%s\n", color.GreenString("Approved spender %s", result.Spender.Hex()))
		fmt.Fprintf(o.out, "  Transaction: %s\n", color.CyanString(result.TxHash))
	}
	return nil
}

func (o *Orchestrator) displaySources(sources map[string]string) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(o.out, "Found %d liquidity sources on chain %d\n", len(names), o.cfg.ChainID)
	if o.cfg.Verbose {
		for _, name := range names {
			fmt.Fprintf(o.out, "  %s\n", name)
		}
	}
}

func (o *Orchestrator) displayLiquidity(breakdown *report.LiquidityBreakdown) {
	fmt.Fprintf(o.out, "\n%d Sources\n", breakdown.Count)
	for _, share := range breakdown.Shares {
		fmt.Fprintf(o.out, "  %s: %s%%\n", color.YellowString(share.Source), share.Percent)
	}
}

func (o *Orchestrator) displayTaxes(lines []report.TaxLine) {
	if len(lines) == 0 {
		return
	}

	fmt.Fprintf(o.out, "\nToken Taxes\n")
	for _, line := range lines {
		fmt.Fprintf(o.out, "  %s %s: %s%%\n", line.Token, line.Direction, line.Percent)
	}
}

func (o *Orchestrator) dumpJSON(label string, v interface{}) {
	if !o.cfg.Verbose {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(o.out, "\n%s:\n%s\n", label, string(data))
}
