// =============================================================================
// SUNAT Detracciones - Record Validator
// =============================================================================
//
// This module decides whether a parsed invoice enters the batch. Each policy
// is an ORDERED list of rules; the first rule that fails gives the single
// rejection reason for the record. Rules never accumulate.
//
// POLICIES:
//   generic     : configured minimum, detraction term, code, optional
//                 whitelist, amount, bank account, supplier RUC (acquirer mode)
//   sunat_table : same checks plus the official per-code minimum table,
//                 which rejects unknown codes before any amount check
//
// =============================================================================

package validation

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
	"github.com/ginjaninja78/sunat-detracciones/internal/types"
	"github.com/ginjaninja78/sunat-detracciones/internal/xlsxparser"
)

// =============================================================================
// RULES AND POLICIES
// =============================================================================

// Rule is one named check. Check returns "" when the record passes, or the
// rejection reason otherwise.
type Rule struct {
	Name  string
	Check func(rec *types.InvoiceRecord) string
}

// Policy validates one record at a time.
type Policy interface {
	// Name identifies the rule set.
	Name() types.RuleSet

	// Rules lists the checks in evaluation order.
	Rules() []Rule

	// Validate returns the first failing rule's reason, or "" if the record is accepted.
	Validate(rec *types.InvoiceRecord) string
}

// Options configures both policies.
type Options struct {
	// MinAmount is the configured minimum PayableAmount.
	MinAmount decimal.Decimal

	// EnforceWhitelist enables the code whitelist rule.
	EnforceWhitelist bool

	// Whitelist is the set of permitted detraction codes.
	Whitelist map[string]struct{}

	// Mode is the depositor mode of the run.
	Mode types.DepositorMode

	// Table is the official rate table. Required by the sunat_table policy.
	Table *xlsxparser.RateTable
}

// rulePolicy is the shared implementation: an ordered rule list.
type rulePolicy struct {
	name  types.RuleSet
	rules []Rule
}

func (p *rulePolicy) Name() types.RuleSet { return p.name }

func (p *rulePolicy) Rules() []Rule { return p.rules }

func (p *rulePolicy) Validate(rec *types.InvoiceRecord) string {
	for _, r := range p.rules {
		if reason := r.Check(rec); reason != "" {
			return reason
		}
	}
	return ""
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// New returns the policy named by ruleSet.
func New(ruleSet types.RuleSet, opts Options) (Policy, error) {
	switch ruleSet {
	case types.RuleSetGeneric, "":
		return NewGenericPolicy(opts), nil
	case types.RuleSetSunatTable:
		return NewSunatTablePolicy(opts)
	default:
		return nil, errors.Errorf("unknown rule set %q", ruleSet)
	}
}

// NewGenericPolicy builds the generic rule set:
//  1. PayableAmount >= configured minimum
//  2. detraction payment term present
//  3. detraction code present
//  4. code in whitelist (only if enforced)
//  5. detraction amount > 0
//  6. bank account present
//  7. supplier is a RUC (acquirer mode only)
func NewGenericPolicy(opts Options) Policy {
	rules := []Rule{
		minAmountRule(opts.MinAmount),
		termRule(),
		codeRule(),
	}
	if opts.EnforceWhitelist {
		rules = append(rules, whitelistRule(opts.Whitelist))
	}
	rules = append(rules, amountRule(), accountRule())
	if opts.Mode == types.ModeAcquirer {
		rules = append(rules, supplierRUCRule())
	}
	return &rulePolicy{name: types.RuleSetGeneric, rules: rules}
}

// NewSunatTablePolicy builds the official-table rule set:
//  1. detraction payment term present
//  2. detraction code present
//  3. code in the official table
//  4. PayableAmount >= the code's official minimum
//  5. PayableAmount >= configured minimum
//  6. code in whitelist (only if enforced)
//  7. detraction amount > 0
//  8. bank account present
//  9. supplier is a RUC (acquirer mode only)
func NewSunatTablePolicy(opts Options) (Policy, error) {
	if opts.Table == nil {
		return nil, errors.New("sunat_table rule set requires a rate table")
	}

	rules := []Rule{
		termRule(),
		codeRule(),
		officialCodeRule(opts.Table),
		officialMinimumRule(opts.Table),
		minAmountRule(opts.MinAmount),
	}
	if opts.EnforceWhitelist {
		rules = append(rules, whitelistRule(opts.Whitelist))
	}
	rules = append(rules, amountRule(), accountRule())
	if opts.Mode == types.ModeAcquirer {
		rules = append(rules, supplierRUCRule())
	}
	return &rulePolicy{name: types.RuleSetSunatTable, rules: rules}, nil
}

// =============================================================================
// INDIVIDUAL RULES
// =============================================================================

func minAmountRule(minimum decimal.Decimal) Rule {
	reason := "PayableAmount below minimum " + format.Amount2(minimum)
	return Rule{Name: "min_amount", Check: func(rec *types.InvoiceRecord) string {
		if rec.PayableAmount.LessThan(minimum) {
			return reason
		}
		return ""
	}}
}

func termRule() Rule {
	return Rule{Name: "detraction_term", Check: func(rec *types.InvoiceRecord) string {
		if !rec.HasDetractionTerm {
			return "no detraction payment term"
		}
		return ""
	}}
}

func codeRule() Rule {
	return Rule{Name: "detraction_code", Check: func(rec *types.InvoiceRecord) string {
		if rec.DetractionCode == "" {
			return "no detraction code"
		}
		return ""
	}}
}

func whitelistRule(whitelist map[string]struct{}) Rule {
	return Rule{Name: "code_whitelist", Check: func(rec *types.InvoiceRecord) string {
		if _, ok := whitelist[xlsxparser.NormalizeCode(rec.DetractionCode)]; !ok {
			return "code not permitted: " + rec.DetractionCode
		}
		return ""
	}}
}

func amountRule() Rule {
	return Rule{Name: "detraction_amount", Check: func(rec *types.InvoiceRecord) string {
		if !rec.DetractionAmount.IsPositive() {
			return "detraction amount <= 0"
		}
		return ""
	}}
}

func accountRule() Rule {
	return Rule{Name: "bank_account", Check: func(rec *types.InvoiceRecord) string {
		if rec.BankAccount == "" {
			return "no bank account"
		}
		return ""
	}}
}

func supplierRUCRule() Rule {
	return Rule{Name: "supplier_ruc", Check: func(rec *types.InvoiceRecord) string {
		if len(rec.SupplierTaxID) != 11 {
			return "supplier not RUC (acquirer mode)"
		}
		return ""
	}}
}

func officialCodeRule(table *xlsxparser.RateTable) Rule {
	return Rule{Name: "official_code", Check: func(rec *types.InvoiceRecord) string {
		if _, ok := table.Lookup(rec.DetractionCode); !ok {
			return "code not in official table: " + rec.DetractionCode
		}
		return ""
	}}
}

func officialMinimumRule(table *xlsxparser.RateTable) Rule {
	return Rule{Name: "official_minimum", Check: func(rec *types.InvoiceRecord) string {
		entry, ok := table.Lookup(rec.DetractionCode)
		if ok && rec.PayableAmount.LessThan(entry.Minimum) {
			return fmt.Sprintf("PayableAmount below minimum for code %s (%s)", entry.Code, format.Amount2(entry.Minimum))
		}
		return ""
	}}
}

// =============================================================================
// PIPELINE REASONS
// =============================================================================

// InvalidXML is the reason for a file that could not be parsed.
func InvalidXML(err error) string {
	return "invalid XML: " + err.Error()
}

// InvalidDetail is the reason for a record whose detail line failed to encode.
func InvalidDetail(err error) string {
	return "invalid detail: " + err.Error()
}

// Whitelist builds a code set from a list, normalizing numeric codes to 3 digits.
func Whitelist(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c = xlsxparser.NormalizeCode(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}
