package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <diagram.bpmn>",
	Short: "Check a diagram for a start and an end event",
	Long: `Parses a BPMN file and reports whether its first process has a start event
and an end event. Exits with status 1 when the file cannot be parsed or the
process is incomplete.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withGraph, _ := cmd.Flags().GetBool("graph")

		translator := i18n.Builtin(cfg.Locale)
		if cfg.Catalog != "" {
			catalog, err := i18n.Load(cfg.Catalog)
			if err != nil {
				return err
			}
			translator = catalog
		}

		report, err := cli.Validate(args[0], cli.ValidateOptions{
			Graph:      withGraph,
			Render:     renderer(),
			Translator: translator,
		}, os.Stdout)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if !report.IsValid() {
			return domain.ErrStructurallyInvalid
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("graph", false, "Append a Mermaid outline of the process")
}
