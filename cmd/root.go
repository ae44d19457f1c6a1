package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zerox-swap",
	Short: "A CLI for single token swaps through the 0x aggregation API",
	Long: `zerox-swap performs a one-shot token swap on an EVM chain: it fetches an
indicative price from the 0x API, approves the spender contract when the
current allowance is insufficient, fetches a firm quote, and reports the
liquidity sources and transfer taxes involved.

Examples:
  zerox-swap swap --amount 0.1
  zerox-swap swap --amount 2.5 --sell-token 0x... --buy-token 0x... --strict
  zerox-swap sources
  zerox-swap status <tx-hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
