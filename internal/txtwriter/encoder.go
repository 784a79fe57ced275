// =============================================================================
// SUNAT Detracciones - Fixed-Width Encoder
// =============================================================================
//
// This module renders the bank file lines. Widths are exact byte counts; a
// line of any other length is an error, never silently truncated or padded.
//
// DETAIL LINE (107 bytes):
//   | field                       | width | fill            |
//   |-----------------------------|-------|-----------------|
//   | counterpart document type   |   1   |                 |
//   | counterpart document number |  11   | zeros, left     |
//   | counterpart name            |  35   | spaces, right   |
//   | proforma (reserved)         |   9   | zeros           |
//   | detraction code             |   3   | zeros, left     |
//   | bank account (BN)           |  11   | zeros, left     |
//   | detraction amount (cents)   |  15   | zeros, left     |
//   | operation type              |   2   | zeros, left     |
//   | period YYYYMM               |   6   | zeros, left     |
//   | document type code          |   2   | zeros, left     |
//   | series                      |   4   | spaces, right   |
//   | number                      |   8   | zeros, left     |
//
// HEADER (68 bytes):
//   indicator(1) + depositor tax id(11) + depositor name(35) + batch(6) + total cents(15)
//
// =============================================================================

package txtwriter

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

const (
	// DetailWidth is the exact byte length of a detail line.
	DetailWidth = 107

	// HeaderWidth is the exact byte length of the header line.
	HeaderWidth = 68

	// codeShowsName is the detraction code whose RUC counterparts keep their
	// name in supplier mode (bien inmueble).
	codeShowsName = "040"

	nameWidth = 35
	proforma  = "000000000"
)

// DetailEncoder renders one accepted record into a detail line.
type DetailEncoder func(rec *types.InvoiceRecord, operationType string) (string, error)

// DetailEncoderFor returns the encoder for a depositor mode.
func DetailEncoderFor(mode types.DepositorMode) DetailEncoder {
	if mode == types.ModeAcquirer {
		return EncodeAcquirerDetail
	}
	return EncodeSupplierDetail
}

// =============================================================================
// DETAIL ENCODERS
// =============================================================================

// EncodeSupplierDetail renders a supplier-mode detail. The counterpart is the
// customer; its name is blank for RUC customers unless the code is "040".
func EncodeSupplierDetail(rec *types.InvoiceRecord, operationType string) (string, error) {
	docType := format.DocType(rec.CustomerDocNum)

	name := strings.Repeat(" ", nameWidth)
	if docType != "6" || strings.TrimSpace(rec.DetractionCode) == codeShowsName {
		name = format.FitLeft(format.TextUpper(rec.CustomerName), nameWidth, ' ')
	}

	counterpart := docType + format.FitRight(rec.CustomerDocNum, 11, '0') + name
	return finishDetail(counterpart, rec, operationType, "supplier")
}

// EncodeAcquirerDetail renders an acquirer-mode detail. The counterpart is the
// supplier, always a RUC, and its name is always blank.
func EncodeAcquirerDetail(rec *types.InvoiceRecord, operationType string) (string, error) {
	counterpart := "6" + format.FitRight(rec.SupplierTaxID, 11, '0') + strings.Repeat(" ", nameWidth)
	return finishDetail(counterpart, rec, operationType, "acquirer")
}

// finishDetail appends the mode-independent fields and checks the width.
func finishDetail(counterpart string, rec *types.InvoiceRecord, operationType, mode string) (string, error) {
	var b strings.Builder
	b.Grow(DetailWidth)
	b.WriteString(counterpart)
	b.WriteString(proforma)
	b.WriteString(format.PadLeft(format.Head(strings.TrimSpace(rec.DetractionCode), 3), 3, '0'))
	b.WriteString(format.FitRight(rec.BankAccount, 11, '0'))
	b.WriteString(format.Money15(rec.DetractionAmount))
	b.WriteString(format.PadLeft(format.Head(operationType, 2), 2, '0'))
	b.WriteString(format.PadLeft(format.Head(rec.Period, 6), 6, '0'))
	b.WriteString(format.PadLeft(format.Head(rec.TypeCode, 2), 2, '0'))
	b.WriteString(format.FitLeft(rec.Series, 4, ' '))
	b.WriteString(format.FitRight(rec.Number, 8, '0'))

	line := b.String()
	if len(line) != DetailWidth {
		return "", errors.Errorf("%s detail is %d bytes, want %d", mode, len(line), DetailWidth)
	}
	return line, nil
}

// =============================================================================
// HEADER
// =============================================================================

// Header holds the batch-level fields of the first line.
type Header struct {
	Mode       types.DepositorMode
	TaxID      string
	Name       string
	Batch      string
	TotalCents int64
}

// Indicator returns "P" for supplier mode and "*" for acquirer (internet) mode.
func Indicator(mode types.DepositorMode) string {
	if mode == types.ModeAcquirer {
		return "*"
	}
	return "P"
}

// NormalizeBatch keeps the last 6 characters of batch, zero-padded.
func NormalizeBatch(batch string) string {
	return format.FitRight(strings.TrimSpace(batch), 6, '0')
}

// EncodeHeader renders the 68-byte header.
func EncodeHeader(h Header) (string, error) {
	if h.TotalCents < 0 {
		return "", errors.Errorf("negative batch total %d", h.TotalCents)
	}

	line := Indicator(h.Mode) +
		format.FitRight(h.TaxID, 11, '0') +
		format.FitLeft(format.TextUpper(h.Name), nameWidth, ' ') +
		NormalizeBatch(h.Batch) +
		format.PadLeft(strconv.FormatInt(h.TotalCents, 10), 15, '0')

	if len(line) != HeaderWidth {
		return "", errors.Errorf("header is %d bytes, want %d", len(line), HeaderWidth)
	}
	return line, nil
}

// FileName returns the bank file name D<tax id:11><batch:6>.txt.
func FileName(taxID, batch string) string {
	return "D" + format.FitRight(taxID, 11, '0') + NormalizeBatch(batch) + ".txt"
}
