package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agentrank",
		Short: "Rank real estate agents by how consistently they appear in search results",
		Long: `agentrank runs a fixed set of search phrasings for an area, drops portals,
brokerages and other non-agent sites, and ranks the remaining sites by the sum
of their positions across every query.

Settings are read from agentrank.yaml in the current directory or
~/.agentrank, then AGENTRANK_* environment variables (a .env file is loaded
first), then command-line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default: ./agentrank.yaml or ~/.agentrank/agentrank.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this file, rotated by size")

	cmd.AddCommand(NewRankCmd())
	cmd.AddCommand(NewQueriesCmd())
	cmd.AddCommand(NewDenylistCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
