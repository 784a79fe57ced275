package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

func rejectionsWith(reasons ...string) []types.Rejection {
	out := make([]types.Rejection, len(reasons))
	for i, r := range reasons {
		out[i] = types.Rejection{File: "f.xml", Reason: r}
	}
	return out
}

func TestTopReasons(t *testing.T) {
	rej := rejectionsWith("b", "a", "c", "a", "c", "d", "")

	top := TopReasons(rej, 3)
	require.Len(t, top, 3)
	assert.Equal(t, ReasonCount{"a", 2}, top[0], "ties keep first occurrence order")
	assert.Equal(t, ReasonCount{"c", 2}, top[1])
	assert.Equal(t, ReasonCount{"b", 1}, top[2])

	all := TopReasons(rej, 0)
	assert.Len(t, all, 5)
	assert.Equal(t, "(sin motivo)", all[4].Reason)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "No hay registros en omitidos.", Summarize(nil, 5))
	assert.Equal(t, "Motivos principales: no bank account → 2; no detraction code → 1",
		Summarize(rejectionsWith("no detraction code", "no bank account", "no bank account"), 5))
}

func TestCheckCoherence(t *testing.T) {
	rec := func(supplier, customer, account string) *types.InvoiceRecord {
		return &types.InvoiceRecord{SupplierTaxID: supplier, CustomerDocNum: customer, BankAccount: account}
	}

	assert.NoError(t, CheckCoherence(nil, types.ModeSupplier))
	assert.NoError(t, CheckCoherence([]*types.InvoiceRecord{
		rec("20123456789", "1", "111"), rec("20123456789", "2", "111"),
	}, types.ModeSupplier))

	err := CheckCoherence([]*types.InvoiceRecord{
		rec("20123456789", "1", "111"), rec("20999999999", "1", "111"),
	}, types.ModeSupplier)
	var ce *CoherenceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, DimensionSuppliers, ce.Dimension)
	assert.Contains(t, err.Error(), "2 proveedores distintos")

	assert.NoError(t, CheckCoherence([]*types.InvoiceRecord{
		rec("20123456789", "20987654321", "111"), rec("20999999999", "20987654321", "222"),
	}, types.ModeAcquirer), "acquirer mode ignores suppliers and accounts")

	assert.NoError(t, CheckCoherence([]*types.InvoiceRecord{
		rec("20123456789", "20987654321", "111"), rec("20123456789", "", "111"),
	}, types.ModeAcquirer), "empty values do not count")

	err = CheckCoherence([]*types.InvoiceRecord{rec("20123456789", "", "111")}, types.ModeAcquirer)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.Count)
}

func TestRejectedBatchErrorIs(t *testing.T) {
	err := error(&RejectedBatchError{Rejected: 2, Summary: "Motivos principales: x → 2"})
	assert.ErrorIs(t, err, ErrAllRejected)
	assert.NotErrorIs(t, err, ErrNoInput)
	assert.Contains(t, err.Error(), "Motivos principales: x → 2")
}
