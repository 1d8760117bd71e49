// Package cli implements the marketd command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd is the base command. Running marketd with no subcommand
// starts the server.
var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd - peer to peer marketplace ledger daemon",
	Long: `marketd runs a standalone marketplace ledger: accounts hold
semi-fungible assets and payment tokens, sellers list them for sale,
buyers purchase directly or place offers, and settlement moves tokens
between owner accounts without escrow. The daemon serves a JSON-RPC
API over HTTP and streams ledger events over WebSocket.`,
	Version: "0.1.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (marketd.toml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress startup output")
}
