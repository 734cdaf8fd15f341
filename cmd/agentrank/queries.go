package main

import (
	"fmt"
	"strings"

	"github.com/FranksOps/agentrank/internal/ranking"
	"github.com/spf13/cobra"
)

// NewQueriesCmd creates the queries command.
func NewQueriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries <area>",
		Short: "Print the search phrases a rank run would use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			area := strings.TrimSpace(strings.Join(args, " "))
			for i, q := range ranking.Queries(area, cfg.Search.Templates) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("template", nil, "Query template containing {area} (repeatable, replaces the built-in set)")
	return cmd
}
