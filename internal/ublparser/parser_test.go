package ublparser_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sunat-detracciones/internal/types"
	"github.com/ginjaninja78/sunat-detracciones/internal/ublparser"
	"github.com/ginjaninja78/sunat-detracciones/internal/ublparser/ubltest"
)

func parse(t *testing.T, inv ubltest.Invoice) *types.InvoiceRecord {
	t.Helper()
	rec, err := ublparser.Parse(bytes.NewReader(ubltest.Render(inv)), "f.xml")
	require.NoError(t, err)
	return rec
}

func TestParseValidInvoice(t *testing.T) {
	rec := parse(t, ubltest.Valid())

	assert.Equal(t, "20123456789", rec.SupplierTaxID)
	assert.Equal(t, "PROVEEDOR ANDINO S.A.C.", rec.SupplierName)
	assert.Equal(t, "20987654321", rec.CustomerDocNum)
	assert.Equal(t, "6", rec.CustomerDocType)
	assert.Equal(t, "COMPANIA CLIENTE S.A.", rec.CustomerName)
	assert.Equal(t, "F001-123", rec.ComprobanteID)
	assert.Equal(t, "F001", rec.Series)
	assert.Equal(t, "00000123", rec.Number)
	assert.Equal(t, "01", rec.TypeCode)
	assert.Equal(t, "202503", rec.Period)
	assert.True(t, rec.PayableAmount.Equal(decimal.RequireFromString("1000.00")))
	assert.True(t, rec.HasDetractionTerm)
	assert.Equal(t, "037", rec.DetractionCode)
	assert.True(t, rec.DetractionAmount.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, "0012345678901", rec.BankAccount)
	assert.Equal(t, "f.xml", rec.Source)
}

func TestParseDefaults(t *testing.T) {
	inv := ubltest.Valid()
	inv.TypeCode = ""
	inv.Payable = ""
	inv.NoTerm = true
	inv.Account = ""
	inv.CustomerDoc = "DNI 4567-8901"

	rec := parse(t, inv)

	assert.Equal(t, "01", rec.TypeCode, "absent type code defaults to 01")
	assert.True(t, rec.PayableAmount.IsZero())
	assert.False(t, rec.HasDetractionTerm)
	assert.Empty(t, rec.DetractionCode)
	assert.True(t, rec.DetractionAmount.IsZero())
	assert.Empty(t, rec.BankAccount)
	assert.Equal(t, "45678901", rec.CustomerDocNum)
	assert.Equal(t, "1", rec.CustomerDocType)
}

func TestParseDetractionTermIsCaseInsensitive(t *testing.T) {
	inv := ubltest.Valid()
	inv.TermID = "DETRACCION"
	inv.DetractionAmount = "120,50"

	rec := parse(t, inv)

	assert.True(t, rec.HasDetractionTerm)
	assert.True(t, rec.DetractionAmount.Equal(decimal.RequireFromString("120.50")))
}

func TestParseBlankDetractionAmountIsZero(t *testing.T) {
	inv := ubltest.Valid()
	inv.DetractionAmount = "  "

	rec := parse(t, inv)

	assert.True(t, rec.HasDetractionTerm)
	assert.True(t, rec.DetractionAmount.IsZero())
}

func TestParseMalformedXML(t *testing.T) {
	_, err := ublparser.Parse(strings.NewReader("<Invoice><cbc:ID>F001-1</Invoice"), "bad.xml")
	require.Error(t, err)

	_, err = ublparser.Parse(strings.NewReader(""), "empty.xml")
	require.Error(t, err)
}

func TestParseRejectsSeveralRootElements(t *testing.T) {
	_, err := ublparser.Parse(strings.NewReader("<a/><b/>"), "two.xml")
	require.ErrorContains(t, err, "2 root elements")

	doc := append(ubltest.Render(ubltest.Valid()), []byte("\n<Invoice/>\n")...)
	_, err = ublparser.Parse(bytes.NewReader(doc), "junk.xml")
	require.Error(t, err)

	_, err = ublparser.Parse(bytes.NewReader(ubltest.Render(ubltest.Valid())), "ok.xml")
	require.NoError(t, err, "prolog and comments are not elements")
}

func TestParseLatin1Prolog(t *testing.T) {
	doc := ubltest.Render(ubltest.Valid())
	doc = bytes.Replace(doc, []byte(`encoding="UTF-8"`), []byte(`encoding="ISO-8859-1"`), 1)
	// "ñ" and "í" as single Latin-1 bytes.
	doc = bytes.Replace(doc, []byte("Compañía"), []byte("Compa\xf1\xeda"), 1)

	rec, err := ublparser.Parse(bytes.NewReader(doc), "latin1.xml")
	require.NoError(t, err)
	assert.Equal(t, "COMPANIA CLIENTE S.A.", rec.CustomerName)
}

func TestParseFileSetsSourceAndPath(t *testing.T) {
	dir := t.TempDir()
	path, err := ubltest.Write(dir, "sub/F001-123.XML", ubltest.Valid())
	require.NoError(t, err)

	rec, err := ublparser.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "F001-123.XML", rec.Source)
	assert.Equal(t, path, rec.FullPath)

	_, err = ublparser.ParseFile(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "missing.xml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSplitComprobante(t *testing.T) {
	tests := []struct {
		id, series, number string
	}{
		{"F001-123", "F001", "00000123"},
		{"E01-0000000123456", "E01 ", "00123456"},
		{"fáct-9", "FACT", "00000009"},
		{"F001-12-3", "F001", "00000123"},
		{"B0017", "B001", "00000017"},
		{"", "    ", "00000000"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			series, number := ublparser.SplitComprobante(tt.id)
			assert.Equal(t, tt.series, series)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, "202503", ublparser.Period("2025-03-14"))
	assert.Equal(t, "202503", ublparser.Period("2025/03/14"))
	assert.Equal(t, "202503", ublparser.Period(" 202503 "))
	assert.Equal(t, "000000", ublparser.Period("14.03.2025"))
	assert.Equal(t, "000000", ublparser.Period(""))
	assert.Equal(t, "000000", ublparser.Period("2025-3"))
}
