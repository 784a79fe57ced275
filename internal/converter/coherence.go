package converter

import "github.com/ginjaninja78/sunat-detracciones/internal/types"

// distinct counts the distinct non-empty values of field over recs.
func distinct(recs []*types.InvoiceRecord, field func(*types.InvoiceRecord) string) int {
	set := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if v := field(r); v != "" {
			set[v] = struct{}{}
		}
	}
	return len(set)
}

// CheckCoherence enforces the batch-wide invariants over ACCEPTED records:
//   - acquirer mode: exactly one customer document number
//   - supplier mode: exactly one supplier tax id and exactly one bank account
//
// Empty values do not count. An empty accepted set is coherent.
func CheckCoherence(accepted []*types.InvoiceRecord, mode types.DepositorMode) error {
	if len(accepted) == 0 {
		return nil
	}

	if mode == types.ModeAcquirer {
		if n := distinct(accepted, func(r *types.InvoiceRecord) string { return r.CustomerDocNum }); n != 1 {
			return &CoherenceError{Mode: mode, Dimension: DimensionAcquirers, Count: n}
		}
		return nil
	}

	if n := distinct(accepted, func(r *types.InvoiceRecord) string { return r.SupplierTaxID }); n != 1 {
		return &CoherenceError{Mode: mode, Dimension: DimensionSuppliers, Count: n}
	}
	if n := distinct(accepted, func(r *types.InvoiceRecord) string { return r.BankAccount }); n != 1 {
		return &CoherenceError{Mode: mode, Dimension: DimensionAccounts, Count: n}
	}
	return nil
}
