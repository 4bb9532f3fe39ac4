package main

import (
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/spf13/cobra"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "List the palette of a fresh editing session",
	RunE: func(cmd *cobra.Command, args []string) error {
		collaboration := cfg.Collaboration
		if cmd.Flags().Changed("collaboration") {
			collaboration, _ = cmd.Flags().GetBool("collaboration")
		}
		return cli.Palette(cmd.Context(), cli.PaletteOptions{
			Collaboration: collaboration,
			Render:        renderer(),
			Translator:    i18n.Builtin(cfg.Locale),
		}, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(paletteCmd)
	paletteCmd.Flags().Bool("collaboration", false, "Include the participant (pool) entry")
}
