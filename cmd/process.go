// =============================================================================
// SUNAT Detracciones - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the whole pipeline
// over the input directory.
//
// COMMAND USAGE:
//   detracciones process --batch <lote> [flags]
//
// PROCESSING PIPELINE:
//   1. Load configuration and apply flags
//   2. Collect .xml files and .xml members of .zip files
//   3. Parse, validate and encode every document
//   4. Check batch coherence
//   5. Write D<ruc><lote>.txt and omitidos.csv
//   6. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sunat-detracciones/internal/config"
	"github.com/ginjaninja78/sunat-detracciones/internal/converter"
	"github.com/ginjaninja78/sunat-detracciones/internal/format"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// processFlags mirror the configuration fields they override.
var processFlags struct {
	input            string
	output           string
	batch            string
	minAmount        string
	operationType    string
	mode             string
	ruleSet          string
	enforceWhitelist bool
	codes            string
	rateTable        string
	xlsx             bool
	bundle           bool
	topReasons       int
}

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate the detraction bank file from the input invoices",
	Long: `The process command collects every .xml file in the input directory,
including the .xml members of .zip archives, and builds the bulk payment file.

Every invoice is either accepted into the batch or listed in omitidos.csv with
a single reason. No file is written when the batch mixes depositors (several
acquirers in acquirer mode, or several suppliers or BN accounts in supplier
mode). When every invoice is rejected only omitidos.csv is written.`,

	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringVar(&processFlags.input, "input", "", "Directory with .xml and .zip files (overrides input_dir)")
	f.StringVar(&processFlags.output, "output", "", "Directory for the outputs (overrides output_dir)")
	f.StringVar(&processFlags.batch, "batch", "", "6-digit lote number (overrides batch)")
	f.StringVar(&processFlags.minAmount, "min-amount", "", "Minimum PayableAmount, e.g. 700.00")
	f.StringVar(&processFlags.operationType, "operation-type", "", "2-digit operation type of every detail")
	f.StringVar(&processFlags.mode, "mode", "", "Depositor mode: proveedor or adquiriente")
	f.StringVar(&processFlags.ruleSet, "rule-set", "", "Validation rule set: generic or sunat_table")
	f.BoolVar(&processFlags.enforceWhitelist, "enforce-whitelist", false, "Reject codes outside the whitelist")
	f.StringVar(&processFlags.codes, "codes", "", "Comma separated code whitelist")
	f.StringVar(&processFlags.rateTable, "rate-table", "", "XLSX with the official rate table")
	f.BoolVar(&processFlags.xlsx, "xlsx", false, "Also write omitidos.xlsx")
	f.BoolVar(&processFlags.bundle, "bundle", false, "Zip the outputs into detracciones_<ruc>.zip")
	f.IntVar(&processFlags.topReasons, "top-reasons", 0, "Number of reasons in the rejection summary")
}

// applyProcessFlags overrides cfg with the flags the user actually set.
func applyProcessFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	set := func(name string, dst *string, value string) {
		if changed(name) {
			*dst = value
		}
	}

	set("input", &cfg.InputDir, processFlags.input)
	set("output", &cfg.OutputDir, processFlags.output)
	set("batch", &cfg.Batch, processFlags.batch)
	set("min-amount", &cfg.MinAmount, processFlags.minAmount)
	set("operation-type", &cfg.OperationType, processFlags.operationType)
	set("mode", &cfg.DepositorMode, processFlags.mode)
	set("rule-set", &cfg.RuleSet, processFlags.ruleSet)
	set("rate-table", &cfg.RateTableFile, processFlags.rateTable)

	if changed("enforce-whitelist") {
		cfg.EnforceCodeWhitelist = processFlags.enforceWhitelist
	}
	if changed("codes") {
		cfg.CodeWhitelist = config.SplitList(processFlags.codes)
	}
	if changed("xlsx") {
		cfg.ReportXLSX = processFlags.xlsx
	}
	if changed("bundle") {
		cfg.Bundle = processFlags.bundle
	}
	if changed("top-reasons") {
		cfg.TopReasons = processFlags.topReasons
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyProcessFlags(cmd, cfg)

	if err := cfg.ValidateBatch(); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.ToOptions(logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== SUNAT Detracciones ===")
	fmt.Fprintf(out, "Input:     %s\n", opts.InputDir)
	fmt.Fprintf(out, "Mode:      %s\n", opts.Mode)
	fmt.Fprintf(out, "Rule set:  %s\n", opts.RuleSet)

	result, runErr := converter.New(opts).Run()
	printResult(cmd, result)

	var rejected *converter.RejectedBatchError
	if errors.As(runErr, &rejected) && rejected.ReportPath != "" {
		fmt.Fprintf(out, "Report:    %s\n", rejected.ReportPath)
	}
	return runErr
}

// printResult prints the counts, output paths and the rejection summary.
func printResult(cmd *cobra.Command, result *converter.Result) {
	if result == nil {
		return
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Documents: %d\n", result.Files)
	fmt.Fprintf(out, "Accepted:  %d\n", result.Accepted)
	fmt.Fprintf(out, "Rejected:  %d\n", len(result.Rejections))
	if result.TxtPath != "" {
		fmt.Fprintf(out, "Total:     S/ %s\n", format.Amount2(format.FromCents(result.TotalCents)))
		fmt.Fprintf(out, "TXT:       %s\n", filepath.Base(result.TxtPath))
	}
	if result.ReportPath != "" && result.TxtPath != "" {
		fmt.Fprintf(out, "Report:    %s\n", filepath.Base(result.ReportPath))
	}
	if result.XLSXPath != "" {
		fmt.Fprintf(out, "XLSX:      %s\n", filepath.Base(result.XLSXPath))
	}
	if result.BundlePath != "" {
		fmt.Fprintf(out, "Bundle:    %s\n", filepath.Base(result.BundlePath))
	}
	if result.Files > 0 {
		fmt.Fprintln(out, result.Summary)
	}
	fmt.Fprintf(out, "Time:      %s\n", result.ProcessingTime)
}
