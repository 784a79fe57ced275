// =============================================================================
// SUNAT Detracciones - UBL Invoice Parser
// =============================================================================
//
// This module reads one UBL 2.1 Invoice document (SUNAT flavour) and produces
// a normalized types.InvoiceRecord.
//
// PARSING STRATEGY:
//   The document is loaded into an etree DOM and every field is located by
//   namespace URI + local name, so the prefixes chosen by the issuing software
//   ("cac", "ns2", none at all) do not matter.
//
// FAILURE MODEL:
//   Only a document that is not well-formed XML fails the whole file. Every
//   other missing or malformed field falls back to an explicit default and is
//   left for the validator to reject with a precise reason.
//
// =============================================================================

package ublparser

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

// =============================================================================
// NAMESPACES
// =============================================================================

const (
	// NamespaceCAC is the UBL CommonAggregateComponents namespace.
	NamespaceCAC = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"

	// NamespaceCBC is the UBL CommonBasicComponents namespace.
	NamespaceCBC = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// detractionID is the PaymentTerms / PaymentMeans identifier that marks the
// detraction block. Compared case-insensitively.
const detractionID = "detraccion"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile reads and parses one XML file.
//
// PARAMETERS:
//   - path: The path to the XML file.
//
// RETURNS:
//   - The normalized record. Source is the base name of path.
//   - An error if the file cannot be read or is not well-formed XML.
func ParseFile(path string) (*types.InvoiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read xml")
	}

	rec, err := Parse(bytes.NewReader(data), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	rec.FullPath = path
	return rec, nil
}

// Parse parses a UBL invoice from r.
//
// PARAMETERS:
//   - r: The XML document.
//   - source: The name reported in the record and in rejections.
//
// RETURNS:
//   - The normalized record.
//   - An error if the document is not well-formed XML or does not have
//     exactly one root element.
func Parse(r io.Reader, source string) (*types.InvoiceRecord, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader

	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	if n := len(doc.ChildElements()); n != 1 {
		return nil, errors.Errorf("document has %d root elements", n)
	}

	return extract(root, source), nil
}

// charsetReader decodes prologs such as encoding="ISO-8859-1" that the XML
// decoder does not handle natively.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, errors.Wrapf(err, "charset %q", label)
	}
	if enc == nil {
		return nil, errors.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// =============================================================================
// FIELD EXTRACTION
// =============================================================================

// extract builds the record from an already parsed Invoice root element.
func extract(root *etree.Element, source string) *types.InvoiceRecord {
	rec := &types.InvoiceRecord{Source: source}

	// Supplier.
	supplier := find(root, deep(cac("AccountingSupplierParty")), cac("Party"))
	rec.SupplierTaxID = format.Digits(textOf(find(supplier, cac("PartyIdentification"), cbc("ID"))))
	rec.SupplierName = format.TextUpper(textOf(find(supplier, cac("PartyLegalEntity"), cbc("RegistrationName"))))

	// Customer.
	customer := find(root, deep(cac("AccountingCustomerParty")), cac("Party"))
	rec.CustomerDocNum = format.Digits(textOf(find(customer, cac("PartyIdentification"), cbc("ID"))))
	rec.CustomerDocType = format.DocType(rec.CustomerDocNum)
	rec.CustomerName = format.TextUpper(textOf(find(customer, cac("PartyLegalEntity"), cbc("RegistrationName"))))

	// Identity.
	rec.ComprobanteID = strings.TrimSpace(textOf(find(root, cbc("ID"))))
	rec.Series, rec.Number = SplitComprobante(rec.ComprobanteID)

	typeCode := find(root, cbc("InvoiceTypeCode"))
	if typeCode == nil {
		rec.TypeCode = "01"
	} else {
		rec.TypeCode = format.PadLeft(strings.TrimSpace(typeCode.Text()), 2, '0')
	}

	rec.IssueDate = textOf(find(root, cbc("IssueDate")))
	rec.Period = Period(rec.IssueDate)

	// Monetary total.
	rec.PayableAmount = amountOf(find(root, deep(cac("LegalMonetaryTotal")), cbc("PayableAmount")))

	// Detraction payment term: first PaymentTerms whose ID is "detraccion".
	for _, term := range findAll(root, deep(cac("PaymentTerms"))) {
		if !isDetraction(term) {
			continue
		}
		rec.HasDetractionTerm = true
		rec.DetractionCode = strings.TrimSpace(textOf(find(term, cbc("PaymentMeansID"))))
		rec.DetractionAmount = amountOf(find(term, cbc("Amount")))
		break
	}

	// Detraction bank account: first PaymentMeans whose ID is "detraccion".
	for _, means := range findAll(root, deep(cac("PaymentMeans"))) {
		if !isDetraction(means) {
			continue
		}
		rec.BankAccount = format.Digits(textOf(find(means, cac("PayeeFinancialAccount"), cbc("ID"))))
		break
	}

	return rec
}

func isDetraction(e *etree.Element) bool {
	id := strings.TrimSpace(textOf(find(e, cbc("ID"))))
	return strings.EqualFold(id, detractionID)
}

// amountOf parses a monetary element. Absent, blank and malformed values all
// yield zero so the record is rejected downstream rather than here.
func amountOf(e *etree.Element) decimal.Decimal {
	if e == nil {
		return decimal.Zero
	}
	d, ok := format.ParseAmount(e.Text())
	if !ok {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// DERIVED FIELDS
// =============================================================================

// SplitComprobante derives the 4-char series and 8-digit number from a
// composite id such as "F001-00000123". The id is split on its first "-";
// without a dash both parts are derived from the whole id.
func SplitComprobante(id string) (series, number string) {
	left, right := id, id
	if i := strings.Index(id, "-"); i >= 0 {
		left, right = id[:i], id[i+1:]
	}
	series = format.FitLeft(format.TextUpper(left), 4, ' ')
	number = format.FitRight(format.Digits(right), 8, '0')
	return series, number
}

// Period converts an issue date into YYYYMM.
//
// Accepted inputs:
//   - "2025-03-14" or "2025/03/14" -> "202503"
//   - "202503"                      -> "202503"
//
// Anything else yields "000000".
func Period(issueDate string) string {
	s := strings.ReplaceAll(strings.TrimSpace(issueDate), "/", "-")
	if strings.Contains(s, "-") && len(s) >= 7 {
		return s[:4] + s[5:7]
	}
	if len(s) == 6 && format.IsDigits(s) {
		return s
	}
	return "000000"
}
