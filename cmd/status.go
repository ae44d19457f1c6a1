package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"zerox-swap/config"
	"zerox-swap/pkg/chain"
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a transaction",
	Long: `Look up a transaction (typically an approval sent by the swap command) and
display its receipt status.

Examples:
  zerox-swap status 0x1234...abcd`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chainCtx, err := chain.NewContext(cfg.RPCURL, cfg.PrivateKey, cfg.ChainID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer chainCtx.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	info, err := chainCtx.TransactionInfo(context.Background(), txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTransaction(info)
	}
}

func displayTransaction(info map[string]interface{}) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:      %s\n", color.CyanString(fmt.Sprint(info["hash"])))
	fmt.Printf("  To:        %s\n", color.HiBlackString(fmt.Sprint(info["to"])))
	fmt.Printf("  Nonce:     %v\n", info["nonce"])
	fmt.Printf("  Gas Price: %v\n", info["gas_price"])
	fmt.Printf("  Value:     %v\n", info["value"])

	if pending, ok := info["pending"].(bool); ok && pending {
		fmt.Printf("  Status:    %s\n", color.YellowString("PENDING"))
	} else if status, ok := info["status"].(uint64); ok {
		fmt.Printf("  Block:     %v\n", info["block_number"])
		fmt.Printf("  Gas Used:  %v\n", info["gas_used"])
		if status == types.ReceiptStatusSuccessful {
			fmt.Printf("  Status:    %s\n", color.GreenString("SUCCESS"))
		} else {
			fmt.Printf("  Status:    %s\n", color.RedString("REVERTED"))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
