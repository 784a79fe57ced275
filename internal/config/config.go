// =============================================================================
// SUNAT Detracciones - Configuration Module
// =============================================================================
//
// This module loads the run configuration. Later sources override earlier ones:
//   1. Built-in defaults (Default)
//   2. YAML file (config.yaml, optional unless given explicitly)
//   3. .env file loaded into the process environment (godotenv)
//   4. DETRACCIONES_* environment variables
//   5. Command-line flags (applied by the cmd package)
//
// The result is converted into converter.Options, an explicit struct passed
// to the pipeline. No package-level mutable state is involved.
//
// =============================================================================

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sunat-detracciones/internal/converter"
	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
	"github.com/ginjaninja78/sunat-detracciones/internal/xlsxparser"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DETRACCIONES_"

// DefaultCodeWhitelist is the set of codes accepted when the whitelist is enforced.
var DefaultCodeWhitelist = []string{
	"022", "030", "037", "039", "040", "041", "042", "043", "044", "045", "046",
	"047", "048", "049", "050", "051", "052", "053", "054", "055",
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the settings of one pipeline run.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir holds the .xml and .zip files to process.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives D<ruc><lote>.txt and omitidos.csv.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// StagingDir is where zip members are extracted. Default: system temp dir.
	StagingDir string `yaml:"staging_dir"`

	// =========================================================================
	// BATCH SETTINGS
	// =========================================================================

	// Batch is the 6-digit lote number.
	Batch string `yaml:"batch"`

	// MinAmount is the minimum PayableAmount, as a decimal string.
	// Default: "700.00"
	MinAmount string `yaml:"min_amount"`

	// OperationType is the 2-digit operation type of every detail.
	// Default: "01"
	OperationType string `yaml:"operation_type"`

	// DepositorMode is "proveedor" or "adquiriente".
	// Default: "proveedor"
	DepositorMode string `yaml:"depositor_mode"`

	// =========================================================================
	// VALIDATION SETTINGS
	// =========================================================================

	// RuleSet is "generic" or "sunat_table".
	// Default: "generic"
	RuleSet string `yaml:"rule_set"`

	// EnforceCodeWhitelist rejects codes outside CodeWhitelist.
	EnforceCodeWhitelist bool `yaml:"enforce_code_whitelist"`

	// CodeWhitelist is the set of permitted codes.
	// Default: DefaultCodeWhitelist
	CodeWhitelist []string `yaml:"code_whitelist"`

	// RateTableFile is an XLSX with the official table. Empty uses the built-in one.
	RateTableFile string `yaml:"rate_table_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// TopReasons is the number of reasons in the rejection summary.
	// Default: 5
	TopReasons int `yaml:"top_reasons"`

	// ReportXLSX also writes omitidos.xlsx.
	ReportXLSX bool `yaml:"report_xlsx"`

	// Bundle zips the outputs into detracciones_<ruc>.zip.
	Bundle bool `yaml:"bundle"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is a logrus level name. Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json". Default: "text"
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.MinAmount == "" {
		cfg.MinAmount = "700.00"
	}
	if cfg.OperationType == "" {
		cfg.OperationType = "01"
	}
	if cfg.DepositorMode == "" {
		cfg.DepositorMode = types.ModeSupplier.String()
	}
	if cfg.RuleSet == "" {
		cfg.RuleSet = string(types.RuleSetGeneric)
	}
	if len(cfg.CodeWhitelist) == 0 {
		cfg.CodeWhitelist = append([]string(nil), DefaultCodeWhitelist...)
	}
	if cfg.TopReasons == 0 {
		cfg.TopReasons = 5
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load builds the configuration from path, the .env file and the environment.
//
// PARAMETERS:
//   - path: The YAML file. A missing file is an error only when required.
//   - required: Whether path was explicitly requested by the user.
//   - envFile: A dotenv file loaded into the environment if it exists.
//
// RETURNS:
//   - The merged configuration, defaults applied. Not yet validated.
//   - An error if a file exists but cannot be parsed.
func Load(path string, required bool, envFile string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config file %s", path)
			}
		case os.IsNotExist(err) && !required:
		default:
			return nil, errors.Wrap(err, "read config file")
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load %s", envFile)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// ApplyEnv overrides cfg from DETRACCIONES_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", EnvPrefix, key)
			}
			*dst = b
		}
		return nil
	}

	str("INPUT_DIR", &cfg.InputDir)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("STAGING_DIR", &cfg.StagingDir)
	str("BATCH", &cfg.Batch)
	str("MIN_AMOUNT", &cfg.MinAmount)
	str("OPERATION_TYPE", &cfg.OperationType)
	str("DEPOSITOR_MODE", &cfg.DepositorMode)
	str("RULE_SET", &cfg.RuleSet)
	str("RATE_TABLE_FILE", &cfg.RateTableFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	if v, ok := lookup(EnvPrefix + "CODE_WHITELIST"); ok && v != "" {
		cfg.CodeWhitelist = SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "TOP_REASONS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%sTOP_REASONS", EnvPrefix)
		}
		cfg.TopReasons = n
	}

	for key, dst := range map[string]*bool{
		"ENFORCE_CODE_WHITELIST": &cfg.EnforceCodeWhitelist,
		"REPORT_XLSX":            &cfg.ReportXLSX,
		"BUNDLE":                 &cfg.Bundle,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// SplitList splits a comma or space separated list, dropping blanks.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks every setting except the batch number.
func (c *Config) Validate() error {
	if _, err := types.ParseDepositorMode(c.DepositorMode); err != nil {
		return err
	}
	if _, err := types.ParseRuleSet(c.RuleSet); err != nil {
		return err
	}
	if len(c.OperationType) != 2 || !format.IsDigits(c.OperationType) {
		return errors.Errorf("operation type must be 2 digits, got %q", c.OperationType)
	}
	minAmount, err := decimal.NewFromString(strings.TrimSpace(c.MinAmount))
	if err != nil {
		return errors.Wrapf(err, "invalid min amount %q", c.MinAmount)
	}
	if minAmount.IsNegative() {
		return errors.Errorf("min amount must not be negative, got %s", c.MinAmount)
	}
	if c.TopReasons < 0 {
		return errors.Errorf("top reasons must not be negative, got %d", c.TopReasons)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ValidateBatch checks that the batch is exactly 6 digits.
func (c *Config) ValidateBatch() error {
	if len(c.Batch) != 6 || !format.IsDigits(c.Batch) {
		return errors.Errorf("batch must be exactly 6 digits, got %q", c.Batch)
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// RateTable returns the configured official table.
func (c *Config) RateTable() (*xlsxparser.RateTable, error) {
	if c.RateTableFile == "" {
		return xlsxparser.DefaultRateTable(), nil
	}
	return xlsxparser.ParseRateTable(c.RateTableFile)
}

// ToOptions validates the configuration and converts it into pipeline options.
func (c *Config) ToOptions(logger logrus.FieldLogger) (converter.Options, error) {
	if err := c.Validate(); err != nil {
		return converter.Options{}, err
	}

	mode, _ := types.ParseDepositorMode(c.DepositorMode)
	ruleSet, _ := types.ParseRuleSet(c.RuleSet)
	minAmount, _ := decimal.NewFromString(strings.TrimSpace(c.MinAmount))

	table, err := c.RateTable()
	if err != nil {
		return converter.Options{}, errors.Wrap(err, "load rate table")
	}

	return converter.Options{
		InputDir:         c.InputDir,
		OutputDir:        c.OutputDir,
		Batch:            c.Batch,
		MinAmount:        minAmount,
		OperationType:    c.OperationType,
		EnforceWhitelist: c.EnforceCodeWhitelist,
		Whitelist:        c.CodeWhitelist,
		Mode:             mode,
		RuleSet:          ruleSet,
		RateTable:        table,
		TopReasons:       c.TopReasons,
		ReportXLSX:       c.ReportXLSX,
		Bundle:           c.Bundle,
		StagingRoot:      c.StagingDir,
		Logger:           logger,
	}, nil
}
