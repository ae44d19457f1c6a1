package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerox-swap/config"
	"zerox-swap/pkg/client"
)

var sourcesChainID int64

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"list-sources", "ls"},
	Short:   "List liquidity sources for a chain",
	Long: `List the liquidity sources the 0x aggregation API can route through on a
given chain.

Examples:
  zerox-swap sources
  zerox-swap sources --chain-id 1`,
	Run: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().Int64Var(&sourcesChainID, "chain-id", 0, "Chain ID (defaults to configured chain_id)")
}

func runSources(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainID := sourcesChainID
	if chainID == 0 {
		chainID = cfg.ChainID
	}

	apiClient := client.NewZeroExClient(cfg.BaseURL, cfg.APIKey)

	// Fetch sources with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching liquidity sources..."
		s.Start()
	}

	sources, err := apiClient.GetSources(context.Background(), chainID)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(sources, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySources(sources, chainID)
	}
}

func displaySources(sources map[string]string, chainID int64) {
	if len(sources) == 0 {
		fmt.Printf("\nNo liquidity sources found for chain %d.\n", chainID)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                  LIQUIDITY SOURCES")
	fmt.Println(strings.Repeat("=", 60))

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("  %-30s %s\n", color.YellowString(name), color.HiBlackString(sources[name]))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("\nTotal: %d sources on chain %d\n\n", len(names), chainID)
}
