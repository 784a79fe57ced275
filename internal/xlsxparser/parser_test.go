package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "tabla.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestDefaultRateTable(t *testing.T) {
	table := DefaultRateTable()

	e, ok := table.Lookup("001")
	require.True(t, ok)
	assert.Equal(t, 1, e.Annex)
	assert.True(t, e.Minimum.Equal(decimal.RequireFromString("2675")))

	e, ok = table.Lookup("037")
	require.True(t, ok)
	assert.Equal(t, 3, e.Annex)
	assert.True(t, e.Minimum.Equal(decimal.RequireFromString("700")))

	_, ok = table.Lookup("999")
	assert.False(t, ok)

	entries := table.Entries()
	assert.Equal(t, table.Len(), len(entries))
	assert.Equal(t, "001", entries[0].Code)
}

func TestParseRateTable(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"Codigo", "Descripcion", "Anexo", "Minimo"},
		{"37", "Demas servicios", 3, "700.00"},
		{},
		{"001", "Azucar", "1", "2750,00"},
	})

	table, err := ParseRateTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, path, table.Source)

	e, ok := table.Lookup("037")
	require.True(t, ok)
	assert.Equal(t, "Demas servicios", e.Description)

	e, ok = table.Lookup("1")
	require.True(t, ok)
	assert.True(t, e.Minimum.Equal(decimal.RequireFromString("2750")))
}

func TestParseRateTableErrors(t *testing.T) {
	_, err := ParseRateTable(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)

	path := writeSheet(t, [][]any{
		{"Codigo", "Descripcion", "Anexo", "Minimo"},
		{"037", "Demas servicios", 7, "700.00"},
	})
	_, err = ParseRateTable(path)
	require.ErrorContains(t, err, "invalid annex")

	path = writeSheet(t, [][]any{{"Codigo", "Descripcion", "Anexo", "Minimo"}})
	_, err = ParseRateTable(path)
	require.ErrorContains(t, err, "no codes")
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "037", NormalizeCode(" 37 "))
	assert.Equal(t, "001", NormalizeCode("1"))
	assert.Equal(t, "0370", NormalizeCode("0370"))
	assert.Equal(t, "", NormalizeCode(""))
	assert.Equal(t, "ABC", NormalizeCode("ABC"))
}
