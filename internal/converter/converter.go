// =============================================================================
// SUNAT Detracciones - Converter Module
// =============================================================================
//
// This module runs the whole pipeline for one upload, from the input
// directory to the bank file and the rejection report.
//
// CONVERSION PIPELINE:
//   1. Collect .xml files and the .xml members of zips
//   2. Parse each XML into an InvoiceRecord
//   3. Validate each record with the configured policy
//   4. Encode each accepted record into its 107-byte detail
//   5. Check batch coherence over the accepted records
//   6. Encode the 68-byte header
//   7. Write D<ruc><lote>.txt and omitidos.csv (optionally .xlsx and a zip bundle)
//
// FAILURE MODEL:
//   Per-file problems become rejections. Only an empty input, an incoherent
//   batch, a batch with zero accepted records, a bad header or an I/O error
//   abort the run.
//
// CONCURRENCY:
//   A run is sequential and owns its staging directory, so independent runs
//   over different directories can proceed in parallel.
//
// =============================================================================

package converter

import (
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/report"
	"github.com/ginjaninja78/sunat-detracciones/internal/txtwriter"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
	"github.com/ginjaninja78/sunat-detracciones/internal/ublparser"
	"github.com/ginjaninja78/sunat-detracciones/internal/validation"
	"github.com/ginjaninja78/sunat-detracciones/internal/xlsxparser"
	"github.com/ginjaninja78/sunat-detracciones/pkg/utils"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options is the full input contract of one run.
type Options struct {
	// InputDir holds the uploaded .xml and .zip files.
	InputDir string

	// OutputDir receives the outputs. Created if missing.
	OutputDir string

	// Batch is the lote number; the last 6 characters are used, zero-padded.
	Batch string

	// MinAmount is the configured minimum PayableAmount.
	MinAmount decimal.Decimal

	// OperationType is the 2-digit operation type of every detail.
	OperationType string

	// EnforceWhitelist and Whitelist gate the detraction codes.
	EnforceWhitelist bool
	Whitelist        []string

	// Mode is the depositor mode.
	Mode types.DepositorMode

	// RuleSet selects the validation policy.
	RuleSet types.RuleSet

	// RateTable is used by the sunat_table rule set. Default: built-in table.
	RateTable *xlsxparser.RateTable

	// TopReasons is the number of reasons in the rejection summary. Default: 5.
	TopReasons int

	// ReportXLSX also writes omitidos.xlsx next to omitidos.csv.
	ReportXLSX bool

	// Bundle zips the outputs into detracciones_<ruc>.zip.
	Bundle bool

	// StagingRoot is where zip members are extracted. Default: os.TempDir().
	StagingRoot string

	// Logger receives the run log. Default: logrus standard logger.
	Logger logrus.FieldLogger
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run. It is returned alongside batch
// errors too, so callers can still report counts and paths.
type Result struct {
	// RunID tags every log entry of the run.
	RunID string

	// Files is the number of XML documents processed.
	Files int

	// Accepted and Rejections partition the processed files.
	Accepted   int
	Rejections []types.Rejection

	// TotalCents is the sum of the accepted detraction amounts.
	TotalCents int64

	// TxtPath is the generated bank file. Empty when none was written.
	TxtPath string

	// ReportPath is omitidos.csv. Empty when there were no rejections.
	ReportPath string

	// XLSXPath is omitidos.xlsx when requested.
	XLSXPath string

	// BundlePath is the output zip when requested.
	BundlePath string

	// Summary is the top-reasons line.
	Summary string

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the pipeline with fixed options.
type Converter struct {
	opts   Options
	logger logrus.FieldLogger
}

// New creates a Converter, filling defaults into opts.
func New(opts Options) *Converter {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.OperationType == "" {
		opts.OperationType = "01"
	}
	if opts.TopReasons <= 0 {
		opts.TopReasons = 5
	}
	if opts.RateTable == nil {
		opts.RateTable = xlsxparser.DefaultRateTable()
	}
	return &Converter{opts: opts, logger: opts.Logger}
}

// accepted is a record that made it into the batch with its encoded detail.
type accepted struct {
	rec    *types.InvoiceRecord
	detail string
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - The Result, never nil.
//   - ErrNoInput, *CoherenceError, *RejectedBatchError or a wrapped I/O error.
func (c *Converter) Run() (*Result, error) {
	startTime := time.Now()
	result := &Result{RunID: uuid.NewString()}
	log := c.logger.WithFields(logrus.Fields{"component": "converter", "run_id": result.RunID})
	defer func() { result.ProcessingTime = time.Since(startTime) }()

	policy, err := validation.New(c.opts.RuleSet, validation.Options{
		MinAmount:        c.opts.MinAmount,
		EnforceWhitelist: c.opts.EnforceWhitelist,
		Whitelist:        validation.Whitelist(c.opts.Whitelist),
		Mode:             c.opts.Mode,
		Table:            c.opts.RateTable,
	})
	if err != nil {
		return result, errors.Wrap(err, "build validation policy")
	}

	// =========================================================================
	// STEP 1: COLLECT INPUT FILES
	// =========================================================================

	fm := utils.NewFileManager(c.opts.InputDir, c.opts.OutputDir, log)
	fm.StagingRoot = c.opts.StagingRoot
	defer func() {
		if err := fm.Cleanup(); err != nil {
			log.WithError(err).Warn("Failed to remove staging directory")
		}
	}()

	if err := fm.EnsureOutputDir(); err != nil {
		return result, err
	}

	if !utils.FileExists(c.opts.InputDir) {
		return result, errors.Wrapf(ErrNoInput, "input directory %s", c.opts.InputDir)
	}

	files, err := fm.CollectXMLFiles()
	if err != nil {
		return result, errors.Wrap(err, "collect input files")
	}
	if len(files) == 0 {
		return result, ErrNoInput
	}
	result.Files = len(files)

	log.WithFields(logrus.Fields{
		"files":    len(files),
		"mode":     c.opts.Mode.String(),
		"rule_set": string(policy.Name()),
	}).Info("Processing XML files")

	// =========================================================================
	// STEP 2: PARSE, VALIDATE AND ENCODE EACH FILE
	// =========================================================================

	encode := txtwriter.DetailEncoderFor(c.opts.Mode)
	var batch []accepted

	for _, path := range files {
		outcome := c.process(path, policy, encode)
		if !outcome.Accepted() {
			log.WithFields(logrus.Fields{"file": outcome.Rejection.File, "reason": outcome.Rejection.Reason}).Debug("Rejected")
			result.Rejections = append(result.Rejections, *outcome.Rejection)
			continue
		}
		batch = append(batch, accepted{rec: outcome.Record, detail: outcome.Detail})
	}
	result.Accepted = len(batch)
	result.Summary = Summarize(result.Rejections, c.opts.TopReasons)

	// =========================================================================
	// STEP 3: BATCH COHERENCE
	// =========================================================================

	records := make([]*types.InvoiceRecord, len(batch))
	for i, a := range batch {
		records[i] = a.rec
	}
	if err := CheckCoherence(records, c.opts.Mode); err != nil {
		return result, err
	}

	if len(batch) == 0 {
		if len(result.Rejections) == 0 {
			return result, ErrNoInput
		}
		if err := c.writeReports(result); err != nil {
			return result, err
		}
		return result, &RejectedBatchError{
			Rejected:   len(result.Rejections),
			Summary:    result.Summary,
			ReportPath: result.ReportPath,
		}
	}

	// =========================================================================
	// STEP 4: HEADER AND BANK FILE
	// =========================================================================

	details := make([]string, len(batch))
	for i, a := range batch {
		details[i] = a.detail
		result.TotalCents += format.Cents(a.rec.DetractionAmount)
	}

	if err := c.writeReports(result); err != nil {
		return result, err
	}

	taxID, name := depositor(records, c.opts.Mode)
	header, err := txtwriter.EncodeHeader(txtwriter.Header{
		Mode:       c.opts.Mode,
		TaxID:      taxID,
		Name:       name,
		Batch:      c.opts.Batch,
		TotalCents: result.TotalCents,
	})
	if err != nil {
		return result, errors.Wrap(err, "encode header")
	}

	txtName := txtwriter.FileName(taxID, c.opts.Batch)
	result.TxtPath, err = txtwriter.Write(c.opts.OutputDir, txtName, header, details)
	if err != nil {
		return result, err
	}

	// =========================================================================
	// STEP 5: OPTIONAL BUNDLE
	// =========================================================================

	if c.opts.Bundle {
		outputs := []string{result.TxtPath}
		if result.ReportPath != "" {
			outputs = append(outputs, result.ReportPath)
		}
		result.BundlePath, err = utils.BundleOutputs(c.opts.OutputDir, utils.BundleName(txtName), outputs)
		if err != nil {
			return result, err
		}
	}

	log.WithFields(logrus.Fields{
		"txt":         filepath.Base(result.TxtPath),
		"accepted":    result.Accepted,
		"rejected":    len(result.Rejections),
		"total_cents": result.TotalCents,
	}).Info("Bank file generated")

	return result, nil
}

// process turns one file into an Outcome. It never fails: every problem is a
// rejection.
func (c *Converter) process(path string, policy validation.Policy, encode txtwriter.DetailEncoder) types.Outcome {
	rec, err := ublparser.ParseFile(path)
	if err != nil {
		return types.Outcome{Rejection: &types.Rejection{File: filepath.Base(path), Reason: validation.InvalidXML(err)}}
	}

	if reason := policy.Validate(rec); reason != "" {
		return types.Outcome{Record: rec, Rejection: &types.Rejection{File: rec.Source, Reason: reason, Record: rec}}
	}

	detail, err := encode(rec, c.opts.OperationType)
	if err != nil {
		return types.Outcome{Record: rec, Rejection: &types.Rejection{File: rec.Source, Reason: validation.InvalidDetail(err), Record: rec}}
	}

	return types.Outcome{Record: rec, Detail: detail}
}

// writeReports writes omitidos.csv (and .xlsx when requested) if there are rejections.
func (c *Converter) writeReports(result *Result) error {
	if len(result.Rejections) == 0 {
		return nil
	}

	path, err := report.WriteCSV(c.opts.OutputDir, result.Rejections)
	if err != nil {
		return err
	}
	result.ReportPath = path

	if c.opts.ReportXLSX {
		path, err := report.WriteXLSX(c.opts.OutputDir, result.Rejections)
		if err != nil {
			return err
		}
		result.XLSXPath = path
	}
	return nil
}

// depositor returns the tax id and name for the header: the supplier in
// supplier mode, the acquirer in acquirer mode, taken from the first accepted
// record that carries one.
func depositor(records []*types.InvoiceRecord, mode types.DepositorMode) (taxID, name string) {
	for _, r := range records {
		if mode == types.ModeAcquirer {
			if r.CustomerDocNum != "" {
				return r.CustomerDocNum, r.CustomerName
			}
			continue
		}
		if r.SupplierTaxID != "" {
			return r.SupplierTaxID, r.SupplierName
		}
	}
	return "", ""
}
