package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
	"github.com/contactkeval/oi-clusters/internal/logger"
	"github.com/contactkeval/oi-clusters/internal/pipeline"
	"github.com/contactkeval/oi-clusters/internal/report"
)

type analyzeOptions struct {
	expiry   string
	outDir   string
	clusters int
	format   string
	filter   string
	open     bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Cluster open interest for one expiry, write the CSV export and the chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.cfg
			s := settingsFromConfig(cfg)
			if cmd.Flags().Changed("clusters") {
				s.clusters = opts.clusters
			}
			if cmd.Flags().Changed("format") {
				s.format = opts.format
			}
			if cmd.Flags().Changed("filter") {
				s.filter = opts.filter
			}
			outDir := cfg.Export.Dir
			if opts.outDir != "" {
				outDir = opts.outDir
			}

			p, err := newPipeline(cfg, newSource(cfg), s)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, p, data.NormalizeTicker(args[0]), opts.expiry, outDir, opts.open)
		},
	}

	cmd.Flags().StringVar(&opts.expiry, "expiry", "", "expiration date YYYY-MM-DD (default: nearest listed)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory (default: export.dir)")
	cmd.Flags().IntVarP(&opts.clusters, "clusters", "k", 3, "clusters per side")
	cmd.Flags().StringVar(&opts.format, "format", "png", "chart format: png or svg")
	cmd.Flags().StringVar(&opts.filter, "filter", "", `strike filter, e.g. "moneyness > 0.8 && moneyness < 1.2"`)
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the chart when done")
	return cmd
}

func runAnalyze(cmd *cobra.Command, p *pipeline.Pipeline, ticker, expiry, outDir string, open bool) error {
	ctx := cmd.Context()

	if expiry == "" {
		expiries, err := p.Expirations(ctx, ticker)
		if err != nil {
			return err
		}
		expiry = expiries[0]
		logger.Infof("no expiry given, using %s", expiry)
	}

	res, err := p.Analyze(ctx, pipeline.Request{Ticker: ticker, Expiry: expiry})
	if err != nil {
		return err
	}

	exportPath, err := report.WriteFile(outDir, res.ExportName, res.Export)
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	chartPath, err := report.WriteFile(outDir, res.ChartName, res.Chart)
	if err != nil {
		return fmt.Errorf("write chart: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s exp %s  current price %s\n\n",
		res.Quote.Ticker, res.Quote.Expiry, decimal.NewFromFloat(res.Quote.CurrentPrice).StringFixed(2))
	if err := printClusters(out, res); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nexport: %s\nchart:  %s\n", exportPath, chartPath)

	if open {
		if err := openFile(chartPath); err != nil {
			logger.Errorf("could not open chart: %v", err)
		}
	}
	return nil
}

// printClusters writes one line per cluster: strike range, leg count and total open interest.
func printClusters(w io.Writer, res *pipeline.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIDE\tCLUSTER\tSTRIKES\tLEGS\tOPEN INTEREST")
	for _, side := range []struct {
		name string
		legs []cluster.Leg
	}{{"call", res.Calls}, {"put", res.Puts}} {
		for id := 0; id < cluster.Count(side.legs); id++ {
			members := cluster.Members(side.legs, id)
			if len(members) == 0 {
				continue
			}
			var total int64
			for _, l := range members {
				total += l.OpenInterest
			}
			lo := decimal.NewFromFloat(members[0].Strike)
			hi := decimal.NewFromFloat(members[len(members)-1].Strike)
			fmt.Fprintf(tw, "%s\t%d\t%s-%s\t%d\t%d\n", side.name, id+1, lo, hi, len(members), total)
		}
	}
	return tw.Flush()
}
