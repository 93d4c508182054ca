// Command oi-clusters clusters an option chain's open interest by strike,
// exports the clustered legs as CSV and renders them as a scatter chart.
//
//	oi-clusters expirations SPY
//	oi-clusters analyze SPY --expiry 2026-02-20 --open
//	oi-clusters serve --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contactkeval/oi-clusters/internal/config"
	"github.com/contactkeval/oi-clusters/internal/logger"
)

type rootOptions struct {
	configPath string
	verbosity  int
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "oi-clusters",
		Short:         "Cluster options open interest by strike",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadAndValidate(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := int(logger.ParseLevel(cfg.Log.Verbosity))
			if cmd.Flags().Changed("verbosity") {
				level = opts.verbosity
			}
			logger.SetVerbosity(level)
			logger.Debugf("config loaded from %q, log level %s", opts.configPath, logger.Verbosity())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "oi-clusters.yaml", "path to YAML config (optional)")
	cmd.PersistentFlags().IntVarP(&opts.verbosity, "verbosity", "v", int(logger.Info), "log verbosity: 0=error 1=info 2=debug 3=trace")

	cmd.AddCommand(
		newExpirationsCmd(opts),
		newAnalyzeCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}
