package main

import (
	"os"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts arbor in server mode, exposing editing sessions as a JSON API over HTTP.
Session snapshots survive restarts when a file or redis store is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Port, _ = flags.GetInt("port")
		}
		if flags.Changed("redis") {
			cfg.Redis.Addr, _ = flags.GetString("redis")
			cfg.Store.Backend = config.StoreRedis
		}
		if flags.Changed("export-dir") {
			cfg.Exports.Dir, _ = flags.GetString("export-dir")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := cli.WithShutdownSignals(cmd.Context())
		defer ctx.Stop()

		tui.PrintBanner(os.Stderr, strings.TrimSpace(arbor.Version))

		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := cli.Serve(ctx, app, cfg); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Info("Shutdown complete", "signal", sig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for session snapshots (host:port)")
	serveCmd.Flags().String("export-dir", "", "Directory receiving exported diagrams")
}
