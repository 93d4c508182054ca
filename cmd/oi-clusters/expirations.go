package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contactkeval/oi-clusters/internal/data"
)

func newExpirationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expirations TICKER",
		Short: "List option expiration dates for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(opts.cfg, newSource(opts.cfg), settingsFromConfig(opts.cfg))
			if err != nil {
				return err
			}
			expiries, err := p.Expirations(cmd.Context(), data.NormalizeTicker(args[0]))
			if err != nil {
				return err
			}
			for _, e := range expiries {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			return nil
		},
	}
}
