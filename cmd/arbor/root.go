package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor hosts BPMN diagram editing sessions",
	Long: `Arbor drives BPMN editing sessions: palette actions, shape creation,
zoom, undo/redo and export of the diagram as markup and vector image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("locale") {
			loaded.Locale, _ = cmd.Flags().GetString("locale")
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		// Logs go to stderr so stdout stays clean for MCP stdio and reports.
		l, err := cli.NewLogger(os.Stderr, loaded.Log)
		if err != nil {
			return err
		}
		slog.SetDefault(l)
		cfg, logger = loaded, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the arbor configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("locale", "en", "Locale for palette titles and notices")
}
