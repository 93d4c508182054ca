package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/contactkeval/oi-clusters/internal/web"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			p, err := newPipeline(cfg, newSource(cfg), settingsFromConfig(cfg))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if open {
				go func() {
					time.Sleep(500 * time.Millisecond)
					_ = openFile("http://" + localURL(cfg.Server.Addr))
				}()
			}
			return web.NewServer(p, cfg.Server.MaxResults).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default: server.addr)")
	cmd.Flags().BoolVar(&open, "open", false, "open the page in a browser")
	return cmd
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
