package txtwriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

func record() *types.InvoiceRecord {
	return &types.InvoiceRecord{
		SupplierTaxID:    "20123456789",
		SupplierName:     "PROVEEDOR ANDINO S.A.C.",
		CustomerDocType:  "6",
		CustomerDocNum:   "20987654321",
		CustomerName:     "COMPANIA CLIENTE S.A.",
		Series:           "F001",
		Number:           "00000123",
		TypeCode:         "01",
		Period:           "202503",
		PayableAmount:    decimal.RequireFromString("1000.00"),
		DetractionCode:   "037",
		DetractionAmount: decimal.RequireFromString("50.00"),
		BankAccount:      "12345678901",
	}
}

func spaces(n int) string { return strings.Repeat(" ", n) }

func TestEncodeSupplierDetail(t *testing.T) {
	line, err := EncodeSupplierDetail(record(), "01")
	require.NoError(t, err)

	want := "6" + "20987654321" + spaces(35) + "000000000" + "037" + "12345678901" +
		"000000000005000" + "01" + "202503" + "01" + "F001" + "00000123"
	assert.Equal(t, want, line)
	assert.Len(t, line, DetailWidth)
}

func TestEncodeSupplierDetailNames(t *testing.T) {
	rec := record()
	rec.DetractionCode = "040"
	line, err := EncodeSupplierDetail(rec, "01")
	require.NoError(t, err)
	assert.Equal(t, "COMPANIA CLIENTE S.A."+spaces(14), line[12:47], "code 040 keeps the RUC name")

	rec = record()
	rec.CustomerDocNum = "45678901"
	rec.CustomerName = "José Pérez Quispe de la Cruz Huamán Huanca"
	line, err = EncodeSupplierDetail(rec, "01")
	require.NoError(t, err)
	assert.Equal(t, "1", line[:1])
	assert.Equal(t, "00045678901", line[1:12])
	assert.Equal(t, "JOSE PEREZ QUISPE DE LA CRUZ HUAMAN", line[12:47])
}

func TestEncodeAcquirerDetail(t *testing.T) {
	rec := record()
	rec.CustomerDocNum = "45678901"
	rec.DetractionCode = "040"

	line, err := EncodeAcquirerDetail(rec, "1")
	require.NoError(t, err)
	assert.Len(t, line, DetailWidth)
	assert.Equal(t, "6"+"20123456789"+spaces(35), line[:47], "counterpart is the supplier with a blank name")
	assert.Equal(t, "01", line[85:87], "operation type is zero-padded")
}

func TestDetailEncoderFor(t *testing.T) {
	a, err := DetailEncoderFor(types.ModeAcquirer)(record(), "01")
	require.NoError(t, err)
	assert.Equal(t, "20123456789", a[1:12])

	s, err := DetailEncoderFor(types.ModeSupplier)(record(), "01")
	require.NoError(t, err)
	assert.Equal(t, "20987654321", s[1:12])
}

func TestDetailFieldFitting(t *testing.T) {
	rec := record()
	rec.BankAccount = "0012345678901"
	rec.DetractionCode = " 0370 "
	rec.DetractionAmount = decimal.RequireFromString("12.345")

	line, err := EncodeSupplierDetail(rec, "01")
	require.NoError(t, err)
	assert.Equal(t, "037", line[56:59])
	assert.Equal(t, "12345678901", line[59:70], "account keeps the last 11 digits")
	assert.Equal(t, "000000000001235", line[70:85], "cents are rounded half-up")
}

func TestDetailWidthViolation(t *testing.T) {
	rec := record()
	rec.DetractionAmount = decimal.RequireFromString("99999999999999.99")
	_, err := EncodeSupplierDetail(rec, "01")
	require.ErrorContains(t, err, "want 107")
}

func TestNonASCIINamesKeepWidths(t *testing.T) {
	rec := record()
	rec.CustomerDocNum = "45678901"
	rec.CustomerName = "D’ONOFRIO S.A."
	line, err := EncodeSupplierDetail(rec, "01")
	require.NoError(t, err)
	assert.Equal(t, "D'ONOFRIO S.A."+spaces(21), line[12:47])

	rec.CustomerName = "ŁÓDŹ TRADING"
	line, err = EncodeSupplierDetail(rec, "01")
	require.NoError(t, err)
	assert.Equal(t, "LODZ TRADING"+spaces(23), line[12:47])

	for name, want := range map[string]string{
		"D’ONOFRIO S.A.":          "D'ONOFRIO S.A.",
		"INVERSIONES Nº 1 S.A.C.": "INVERSIONES NO 1 S.A.C.",
		"ÅNGSTRÖM ÆRO SAC":        "ANGSTROM AERO SAC",
	} {
		for _, mode := range []types.DepositorMode{types.ModeSupplier, types.ModeAcquirer} {
			header, err := EncodeHeader(Header{Mode: mode, TaxID: "20123456789", Name: name, Batch: "250001", TotalCents: 5000})
			require.NoError(t, err, name)
			assert.Len(t, header, HeaderWidth)
			assert.Equal(t, want+spaces(35-len(want)), header[12:47])
		}
	}
}

func TestEncodeHeader(t *testing.T) {
	line, err := EncodeHeader(Header{
		Mode:       types.ModeSupplier,
		TaxID:      "20123456789",
		Name:       "Proveedor Andino S.A.C.",
		Batch:      "250001",
		TotalCents: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "P"+"20123456789"+"PROVEEDOR ANDINO S.A.C."+spaces(12)+"250001"+"000000000005000", line)
	assert.Len(t, line, HeaderWidth)

	line, err = EncodeHeader(Header{Mode: types.ModeAcquirer, TaxID: "987654321", Batch: "12"})
	require.NoError(t, err)
	assert.Equal(t, "*00987654321", line[:12])
	assert.Equal(t, "000012", line[47:53])

	_, err = EncodeHeader(Header{TotalCents: 1_000_000_000_000_000})
	require.ErrorContains(t, err, "want 68")
}

func TestFileNameAndBatch(t *testing.T) {
	assert.Equal(t, "D20123456789250001.txt", FileName("20123456789", "250001"))
	assert.Equal(t, "D00000000123000042.txt", FileName("123", "42"))
	assert.Equal(t, "250001", NormalizeBatch("2025250001"))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	header, err := EncodeHeader(Header{TaxID: "20123456789", Name: "X", Batch: "250001", TotalCents: 5000})
	require.NoError(t, err)
	detail, err := EncodeSupplierDetail(record(), "01")
	require.NoError(t, err)

	path, err := Write(dir, "D20123456789250001.txt", header, []string{detail})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, header+"\n"+detail+"\n", string(data))

	_, err = Write(dir, "bad.txt", header, []string{"short"})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "bad.txt"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written for a malformed batch")
}
