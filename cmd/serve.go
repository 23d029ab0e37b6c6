package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/chartloom/internal/api"
	"github.com/KaramelBytes/chartloom/internal/cache"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis pipeline over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		az, enr, err := newAnalyzer(c, logger)
		if err != nil {
			return err
		}
		shares, err := shareStore(c, false)
		if err != nil {
			return err
		}
		o := api.Options{
			Analyzer:       az,
			Shares:         shares,
			Analysis:       analysisOptions(c),
			AllowedOrigins: c.AllowedOrigins,
			Logger:         logger,
		}
		if enr != nil {
			o.InsightStats = func() cache.Stats { return enr.CacheStats() }
		}
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(os.Stderr, "✓ Serving on %s (AI: %v)\n", addr, enr.Enabled())
		return api.NewServer(o).ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
}
