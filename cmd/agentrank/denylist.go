package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDenylistCmd creates the denylist command.
func NewDenylistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "denylist [url...]",
		Short: "Print the denylist, or check URLs against it",
		Long: `Without arguments, denylist prints every pattern a rank run filters on.
With URLs, it prints whether each one would be dropped and which pattern
matched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			deny := buildDenylist(cfg.Search)
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, p := range deny.Patterns() {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			for _, u := range args {
				if pattern, ok := deny.Match(u); ok {
					fmt.Fprintf(out, "denied  %s (%s)\n", u, pattern)
				} else {
					fmt.Fprintf(out, "allowed %s\n", u)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("deny", nil, "Extra denylist pattern (repeatable)")
	cmd.Flags().Bool("no-default-deny", false, "Do not use the built-in denylist")
	return cmd
}
