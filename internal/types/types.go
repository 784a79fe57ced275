// =============================================================================
// SUNAT Detracciones - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - ublparser   (produces InvoiceRecord)
//   - validation  (accepts or rejects InvoiceRecord)
//   - txtwriter   (encodes InvoiceRecord into fixed-width lines)
//   - report      (renders Rejection rows)
//   - converter   (orchestrates all of the above)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEPOSITOR MODE
// =============================================================================

// DepositorMode selects who makes the detraction deposit and therefore which
// party is the "counterpart" on every detail line.
type DepositorMode int

const (
	// ModeSupplier: the supplier deposits on behalf of many acquirers.
	// Header indicator "P"; the counterpart on each detail is the customer.
	ModeSupplier DepositorMode = iota

	// ModeAcquirer: a single acquirer deposits for many suppliers
	// ("internet" mode). Header indicator "*"; the counterpart is the supplier.
	ModeAcquirer
)

// String returns the Spanish name used in configuration and messages.
func (m DepositorMode) String() string {
	switch m {
	case ModeSupplier:
		return "proveedor"
	case ModeAcquirer:
		return "adquiriente"
	default:
		return fmt.Sprintf("DepositorMode(%d)", int(m))
	}
}

// ParseDepositorMode accepts the Spanish names used by the web form
// ("proveedor", "adquiriente") and their English equivalents.
func ParseDepositorMode(s string) (DepositorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "proveedor", "supplier":
		return ModeSupplier, nil
	case "adquiriente", "acquirer", "internet":
		return ModeAcquirer, nil
	default:
		return ModeSupplier, fmt.Errorf("unknown depositor mode %q (want proveedor or adquiriente)", s)
	}
}

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet names one of the selectable validation policies.
type RuleSet string

const (
	// RuleSetGeneric applies the configured minimum amount and optional whitelist.
	RuleSetGeneric RuleSet = "generic"

	// RuleSetSunatTable validates each code against the official SUNAT minimum table.
	RuleSetSunatTable RuleSet = "sunat_table"
)

// ParseRuleSet validates a rule set name.
func ParseRuleSet(s string) (RuleSet, error) {
	switch RuleSet(strings.ToLower(strings.TrimSpace(s))) {
	case RuleSetGeneric, "":
		return RuleSetGeneric, nil
	case RuleSetSunatTable:
		return RuleSetSunatTable, nil
	default:
		return RuleSetGeneric, fmt.Errorf("unknown rule set %q (want generic or sunat_table)", s)
	}
}

// =============================================================================
// INVOICE RECORD
// =============================================================================

// InvoiceRecord is the normalized view of one UBL 2.1 invoice.
// It is built once by the parser and never mutated afterwards.
type InvoiceRecord struct {
	// Supplier (emisor).
	SupplierTaxID string // digits only
	SupplierName  string // accent-stripped, upper-cased

	// Customer (adquiriente).
	CustomerDocType string // "6" when CustomerDocNum has 11 digits, else "1"
	CustomerDocNum  string // digits only
	CustomerName    string // accent-stripped, upper-cased

	// Invoice identity.
	ComprobanteID string // raw cbc:ID, trimmed (e.g. "F001-123")
	Series        string // 4 chars, left-justified, space-padded
	Number        string // 8 digits, zero-padded
	TypeCode      string // 2 digits, "01" when absent
	IssueDate     string // raw cbc:IssueDate
	Period        string // YYYYMM or "000000"

	// Amounts and detraction data.
	PayableAmount     decimal.Decimal
	HasDetractionTerm bool
	DetractionCode    string
	DetractionAmount  decimal.Decimal
	BankAccount       string // digits only

	// Source is the base name of the XML file the record came from.
	Source string

	// FullPath is the resolved path that was parsed.
	FullPath string
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Rejection is one row of the omitidos report.
type Rejection struct {
	// File is the base name of the source XML.
	File string

	// Reason is the single human-readable rejection reason.
	Reason string

	// Record is nil when the XML could not be parsed at all.
	Record *InvoiceRecord
}

// Outcome is the per-file result of the parse/validate/encode stages.
// Exactly one of Detail or Rejection is meaningful.
type Outcome struct {
	Record    *InvoiceRecord
	Detail    string
	Rejection *Rejection
}

// Accepted reports whether the record made it into the batch.
func (o Outcome) Accepted() bool {
	return o.Rejection == nil
}
