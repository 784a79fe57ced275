// =============================================================================
// SUNAT Detracciones - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and the rate table without touching any input file.
//
// COMMAND USAGE:
//   detracciones validate [--config config.yaml] [--batch 250001]
//
// OUTPUT:
//   The effective settings and the ordered rules of the selected policy.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sunat-detracciones/internal/validation"
)

// validateBatch is checked only when given.
var validateBatch string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and the rate table without processing",
	Long: `Load config.yaml, the .env file and the DETRACCIONES_* variables, check every
setting and the official rate table, and print the validation rules in the
order they are applied.`,

	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateBatch, "batch", "", "Also check this lote number")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("batch") {
		cfg.Batch = validateBatch
	}
	if cfg.Batch != "" {
		if err := cfg.ValidateBatch(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.ToOptions(logger)
	if err != nil {
		return err
	}

	policy, err := validation.New(opts.RuleSet, validation.Options{
		MinAmount:        opts.MinAmount,
		EnforceWhitelist: opts.EnforceWhitelist,
		Whitelist:        validation.Whitelist(opts.Whitelist),
		Mode:             opts.Mode,
		Table:            opts.RateTable,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid.")
	fmt.Fprintf(out, "  Input:          %s\n", opts.InputDir)
	fmt.Fprintf(out, "  Output:         %s\n", opts.OutputDir)
	fmt.Fprintf(out, "  Mode:           %s\n", opts.Mode)
	fmt.Fprintf(out, "  Minimum:        %s\n", opts.MinAmount.StringFixed(2))
	fmt.Fprintf(out, "  Operation type: %s\n", opts.OperationType)
	fmt.Fprintf(out, "  Rate table:     %s (%d codes)\n", opts.RateTable.Source, opts.RateTable.Len())
	fmt.Fprintf(out, "  Rule set:       %s\n", policy.Name())
	for i, r := range policy.Rules() {
		fmt.Fprintf(out, "    %d. %s\n", i+1, r.Name)
	}
	return nil
}
