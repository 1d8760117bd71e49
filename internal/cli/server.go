package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openxm/marketd/internal/config"
	"github.com/openxm/marketd/internal/server"
)

var (
	// Server flags
	httpAddress string
	wsAddress   string
	dataDir     string
	genesisFile string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace ledger daemon",
	Long: `Start the marketd server:
- HTTP JSON-RPC API (submit, ledger_accept, account and market queries)
- WebSocket streams (ledger closes, transactions, marketplace events)
- Pebble ledger store and SQLite trade history when a data directory
  is configured; pure in-memory otherwise

This is the default command when no subcommand is given.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&httpAddress, "http", "", "HTTP JSON-RPC listen address (overrides config)")
	serverCmd.Flags().StringVar(&wsAddress, "ws", "", "WebSocket listen address (overrides config)")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config; empty runs in memory)")
	serverCmd.Flags().StringVar(&genesisFile, "genesis", "", "path to a genesis JSON file")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	applyServerFlags(cfg)

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Println("Starting marketd - marketplace ledger daemon")
		fmt.Printf("  - HTTP JSON-RPC: http://%s/\n", cfg.Server.HTTPAddress)
		if cfg.Server.WSAddress != "" {
			fmt.Printf("  - WebSocket:     ws://%s/\n", cfg.Server.WSAddress)
		}
		fmt.Printf("  - Health check:  http://%s/health\n", cfg.Server.HTTPAddress)
		if cfg.Database.Path != "" {
			fmt.Printf("  - Data dir:      %s\n", cfg.Database.Path)
		} else {
			fmt.Println("  - Storage:       in-memory")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

// applyServerFlags lets command line flags override the loaded
// configuration.
func applyServerFlags(cfg *config.Config) {
	if httpAddress != "" {
		cfg.Server.HTTPAddress = httpAddress
	}
	if wsAddress != "" {
		cfg.Server.WSAddress = wsAddress
	}
	if dataDir != "" {
		cfg.Database.Path = dataDir
	}
	if genesisFile != "" {
		cfg.GenesisFile = genesisFile
	}
}
