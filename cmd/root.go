// =============================================================================
// SUNAT Detracciones - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (detracciones)
//   ├── processCmd  (detracciones process)
//   ├── validateCmd (detracciones validate)
//   ├── countCmd    (detracciones count)
//   └── versionCmd  (detracciones version)
//
// CONFIGURATION:
//   The root command owns the global flags and the shared loadConfig helper:
//   config.yaml, then .env, then DETRACCIONES_* variables, then flags.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sunat-detracciones/internal/config"
	"github.com/ginjaninja78/sunat-detracciones/internal/logging"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// envFile is a dotenv file loaded before the DETRACCIONES_* overrides.
var envFile string

// verbose forces debug logging.
var verbose bool

// logFormat overrides the configured log format when set.
var logFormat string

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "detracciones",
	Short: "Build SUNAT detraction bank files from UBL invoices",
	Long: `detracciones turns a directory of UBL 2.1 electronic invoices (.xml files and
.zip archives of them) into the fixed-width D<ruc><lote>.txt bulk payment file
accepted by Banco de la Nación, plus an omitidos.csv report listing every
invoice left out and why.

Example Usage:
  detracciones process --batch 250001
  detracciones process --batch 250001 --mode adquiriente --rule-set sunat_table
  detracciones validate --config ./detracciones.yaml
  detracciones count --input ./uploads`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml",
		"Path to the configuration file (optional unless given explicitly)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"Dotenv file loaded into the environment if present")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging, including every rejected file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format: text or json (overrides log_format)")
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the configuration and builds the logger for a command.
// Command-specific flags are applied by the caller before Validate.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(cfgFile, required, envFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

// newLogger builds the logger described by cfg.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}
