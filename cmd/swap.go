package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerox-swap/config"
	"zerox-swap/pkg/approval"
	"zerox-swap/pkg/chain"
	"zerox-swap/pkg/client"
	"zerox-swap/pkg/swap"
)

var (
	sellAmount        string
	sellTokenAddr     string
	buyTokenAddr      string
	affiliateFeeBps   int
	surplusCollection bool
	strictMode        bool
)

// spinnerProgress backs the orchestrator's step indicator with a terminal
// spinner.
type spinnerProgress struct {
	spinner *spinner.Spinner
}

func (p *spinnerProgress) Start(message string) {
	p.spinner.Suffix = " " + message
	p.spinner.Start()
}

func (p *spinnerProgress) Stop() {
	p.spinner.Stop()
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Perform a single token swap",
	Long: `Swap a fixed amount of the sell token for the buy token through the 0x
aggregation API.

The tool fetches an indicative price first. If the price response reports an
allowance issue, the spender is approved for the maximum allowance (simulated
before submission) and the tool waits for the approval to confirm. It then
fetches a firm quote and prints the liquidity source breakdown and any
transfer taxes.

Examples:
  zerox-swap swap --amount 0.1
  zerox-swap swap --amount 2.5 --sell-token 0x... --buy-token 0x...
  zerox-swap swap --amount 0.1 --strict`,
	Run: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&sellAmount, "amount", "", "Amount of the sell token to swap, in human-readable units (REQUIRED)")
	swapCmd.Flags().StringVar(&sellTokenAddr, "sell-token", "", "Sell token contract address (defaults to configured sell_token)")
	swapCmd.Flags().StringVar(&buyTokenAddr, "buy-token", "", "Buy token contract address (defaults to configured buy_token)")
	swapCmd.Flags().IntVar(&affiliateFeeBps, "affiliate-fee-bps", 100, "Affiliate fee in basis points")
	swapCmd.Flags().BoolVar(&surplusCollection, "surplus-collection", true, "Enable surplus collection")
	swapCmd.Flags().BoolVar(&strictMode, "strict", false, "Abort the run if the approval transaction fails to confirm")

	_ = swapCmd.MarkFlagRequired("amount")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if sellTokenAddr == "" {
		sellTokenAddr = cfg.SellToken
	}
	if buyTokenAddr == "" {
		buyTokenAddr = cfg.BuyToken
	}
	if !common.IsHexAddress(sellTokenAddr) {
		printError(fmt.Errorf("invalid sell token address: %s", sellTokenAddr))
		os.Exit(1)
	}
	if !common.IsHexAddress(buyTokenAddr) {
		printError(fmt.Errorf("invalid buy token address: %s", buyTokenAddr))
		os.Exit(1)
	}

	// Connect to the chain and derive the taker address
	chainCtx, err := chain.NewContext(cfg.RPCURL, cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer chainCtx.Close()

	sellToken, err := chain.NewERC20(chainCtx, common.HexToAddress(sellTokenAddr))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	apiClient := client.NewZeroExClient(cfg.BaseURL, cfg.APIKey)
	coordinator := approval.NewCoordinator(sellToken, chainCtx.Taker)

	var out io.Writer = os.Stdout
	if jsonOutput {
		out = io.Discard
	}

	orchestrator := swap.NewOrchestrator(apiClient, sellToken, coordinator, swap.Config{
		ChainID:           cfg.ChainID,
		BuyToken:          common.HexToAddress(buyTokenAddr),
		Taker:             chainCtx.Taker,
		SellAmount:        sellAmount,
		AffiliateFeeBps:   affiliateFeeBps,
		SurplusCollection: surplusCollection,
		Strict:            strictMode,
		Verbose:           verbose,
	}, out)

	if !jsonOutput {
		orchestrator.SetProgress(&spinnerProgress{
			spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		})
		fmt.Printf("Swapping %s of %s for %s as %s\n\n",
			color.YellowString(sellAmount),
			color.CyanString(sellTokenAddr),
			color.CyanString(buyTokenAddr),
			color.CyanString(chainCtx.Taker.Hex()))
	}

	summary, err := orchestrator.Run(context.Background())
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		color.Green("\nDone. The quote's transaction payload is ready; submitting it is up to you.")
	}
}
