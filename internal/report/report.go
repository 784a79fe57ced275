// =============================================================================
// SUNAT Detracciones - Rejection Report
// =============================================================================
//
// This module writes omitidos.csv, the per-file list of invoices that did not
// enter the bank file, and optionally the same rows as omitidos.xlsx.
//
// CSV FORMAT:
//   - Delimiter ";" , CRLF line endings, UTF-8 without BOM
//   - One header row, then one row per rejection in processing order
//   - Amounts with exactly two decimals, blank when the XML was unreadable
//
// =============================================================================

package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

const (
	// CSVName is the fixed name of the CSV report.
	CSVName = "omitidos.csv"

	// XLSXName is the fixed name of the spreadsheet report.
	XLSXName = "omitidos.xlsx"

	sheetName = "Omitidos"
)

// Header is the column header row shared by both formats.
var Header = []string{
	"Archivo XML",
	"Comprobante (Serie-Número)",
	"Motivo de omisión",
	"Total del comprobante (PEN)",
	"Código de detracción",
	"Importe de detracción (PEN)",
}

// Row is one rejection with its echoed fields already formatted.
type Row struct {
	File          string
	Comprobante   string
	Reason        string
	PayableAmount string
	Code          string
	Amount        string
}

// RowFor formats a rejection. Echo fields stay blank when no record was parsed.
func RowFor(rej types.Rejection) Row {
	row := Row{File: rej.File, Reason: rej.Reason}
	if rec := rej.Record; rec != nil {
		row.Comprobante = rec.ComprobanteID
		row.PayableAmount = format.Amount2(rec.PayableAmount)
		row.Code = rec.DetractionCode
		row.Amount = format.Amount2(rec.DetractionAmount)
	}
	return row
}

func (r Row) fields() []string {
	return []string{r.File, r.Comprobante, r.Reason, r.PayableAmount, r.Code, r.Amount}
}

// =============================================================================
// CSV
// =============================================================================

// WriteCSV writes dir/omitidos.csv.
//
// RETURNS:
//   - The full path of the report.
//   - An error if the file cannot be written.
func WriteCSV(dir string, rejections []types.Rejection) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true

	if err := w.Write(Header); err != nil {
		return "", errors.Wrap(err, "write csv header")
	}
	for _, rej := range rejections {
		if err := w.Write(RowFor(rej).fields()); err != nil {
			return "", errors.Wrapf(err, "write csv row %s", rej.File)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush csv")
	}

	path := filepath.Join(dir, CSVName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrap(err, "write csv")
	}
	return path, nil
}

// =============================================================================
// XLSX
// =============================================================================

// WriteXLSX writes dir/omitidos.xlsx with the same rows as the CSV.
func WriteXLSX(dir string, rejections []types.Rejection) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return "", errors.Wrap(err, "rename sheet")
	}

	header := toAny(Header)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", errors.Wrap(err, "write xlsx header")
	}

	for i, rej := range rejections {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", errors.Wrap(err, "cell name")
		}
		values := toAny(RowFor(rej).fields())
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return "", errors.Wrapf(err, "write xlsx row %d", i+2)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "C", 40); err != nil {
		return "", errors.Wrap(err, "set column width")
	}

	path := filepath.Join(dir, XLSXName)
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrap(err, "save xlsx")
	}
	return path, nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
