// =============================================================================
// SUNAT Detracciones - Rate Table Parser
// =============================================================================
//
// This module loads the official SUNAT detraction table: one row per goods or
// service code with its annex and the minimum operation amount from which the
// detraction applies.
//
// TABLE SOURCES:
//   1. Built-in: DefaultRateTable(), current Annex 1/2/3 codes.
//   2. XLSX:     ParseRateTable(path), so the minimums can follow UIT updates
//                without a rebuild.
//
// EXPECTED XLSX LAYOUT (first sheet, header in row 1):
//   | Code | Description                       | Annex | Minimum |
//   |------|-----------------------------------|-------|---------|
//   | 001  | Azucar y melaza de cana           | 1     | 2675.00 |
//   | 037  | Demas servicios gravados con IGV  | 3     | 700.00  |
//
// =============================================================================

package xlsxparser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sunat-detracciones/internal/format"
)

// =============================================================================
// RATE TABLE STRUCTURES
// =============================================================================

// RateEntry is one row of the official table.
type RateEntry struct {
	// Code is the 3-digit detraction code ("037").
	Code string

	// Description is the goods or service name.
	Description string

	// Annex is 1, 2 or 3.
	Annex int

	// Minimum is the operation amount from which the detraction applies.
	Minimum decimal.Decimal
}

// RateTable is the set of official codes keyed by code.
type RateTable struct {
	// Source is the XLSX path the table was loaded from, or "built-in".
	Source string

	entries map[string]RateEntry
}

// NewRateTable builds a table from entries. Later duplicates win.
func NewRateTable(source string, entries []RateEntry) *RateTable {
	t := &RateTable{Source: source, entries: make(map[string]RateEntry, len(entries))}
	for _, e := range entries {
		t.entries[e.Code] = e
	}
	return t
}

// Lookup returns the entry for code, if the code is official.
func (t *RateTable) Lookup(code string) (RateEntry, bool) {
	e, ok := t.entries[NormalizeCode(code)]
	return e, ok
}

// Len returns the number of codes in the table.
func (t *RateTable) Len() int {
	return len(t.entries)
}

// Entries returns all entries sorted by code.
func (t *RateTable) Entries() []RateEntry {
	out := make([]RateEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NormalizeCode trims a code and left-pads numeric codes to 3 digits, so
// spreadsheet cells that lost their leading zeros ("37") still match.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if format.IsDigits(code) && len(code) < 3 {
		return format.PadLeft(code, 3, '0')
	}
	return code
}

// =============================================================================
// BUILT-IN TABLE
// =============================================================================

var (
	annex1Minimum = decimal.RequireFromString("2675.00")
	annexMinimum  = decimal.RequireFromString("700.00")
)

// DefaultRateTable returns the built-in official table.
func DefaultRateTable() *RateTable {
	rows := []struct {
		code, desc string
		annex      int
	}{
		{"001", "Azucar y melaza de cana", 1},
		{"003", "Alcohol etilico", 1},
		{"004", "Recursos hidrobiologicos", 2},
		{"005", "Maiz amarillo duro", 2},
		{"007", "Cana de azucar", 2},
		{"008", "Madera", 2},
		{"009", "Arena y piedra", 2},
		{"010", "Residuos, subproductos, desechos, recortes y desperdicios", 2},
		{"011", "Bienes gravados con el IGV por renuncia a la exoneracion", 2},
		{"012", "Intermediacion laboral y tercerizacion", 3},
		{"014", "Carnes y despojos comestibles", 2},
		{"016", "Aceite de pescado", 2},
		{"017", "Harina, polvo y pellets de pescado, crustaceos, moluscos", 2},
		{"019", "Arrendamiento de bienes muebles", 3},
		{"020", "Mantenimiento y reparacion de bienes muebles", 3},
		{"021", "Movimiento de carga", 3},
		{"022", "Otros servicios empresariales", 3},
		{"023", "Leche", 2},
		{"024", "Comision mercantil", 3},
		{"025", "Fabricacion de bienes por encargo", 3},
		{"026", "Servicio de transporte de personas", 3},
		{"027", "Servicio de transporte de bienes", 3},
		{"030", "Contratos de construccion", 3},
		{"031", "Oro gravado con el IGV", 2},
		{"032", "Paprika y otros frutos de los generos capsicum o pimienta", 2},
		{"034", "Minerales metalicos no auriferos", 2},
		{"035", "Bienes exonerados del IGV", 2},
		{"036", "Oro y demas minerales metalicos exonerados del IGV", 2},
		{"037", "Demas servicios gravados con el IGV", 3},
		{"039", "Minerales no metalicos", 2},
		{"040", "Bien inmueble gravado con IGV", 3},
		{"041", "Plomo", 2},
	}

	entries := make([]RateEntry, 0, len(rows))
	for _, r := range rows {
		minimum := annexMinimum
		if r.annex == 1 {
			minimum = annex1Minimum
		}
		entries = append(entries, RateEntry{Code: r.code, Description: r.desc, Annex: r.annex, Minimum: minimum})
	}
	return NewRateTable("built-in", entries)
}

// =============================================================================
// COLUMN CONFIGURATION
// =============================================================================

// TableColumns defines which columns in the XLSX hold each field (0-based).
type TableColumns struct {
	CodeColumn        int
	DescriptionColumn int
	AnnexColumn       int
	MinimumColumn     int

	// DataStartRow is the first data row (0-based). Default: 1 (Row 2).
	DataStartRow int
}

// DefaultTableColumns returns the layout documented at the top of this file.
func DefaultTableColumns() TableColumns {
	return TableColumns{
		CodeColumn:        0, // Column A
		DescriptionColumn: 1, // Column B
		AnnexColumn:       2, // Column C
		MinimumColumn:     3, // Column D
		DataStartRow:      1, // Row 2
	}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseRateTable reads the official table from the first sheet of an XLSX file.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//
// RETURNS:
//   - The loaded table.
//   - An error if the file cannot be read, a row is malformed, or no codes were found.
func ParseRateTable(path string) (*RateTable, error) {
	return ParseRateTableWithConfig(path, DefaultTableColumns())
}

// ParseRateTableWithConfig reads the table using a custom column layout.
func ParseRateTableWithConfig(path string, columns TableColumns) (*RateTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open rate table")
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("rate table has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "read rows")
	}

	var entries []RateEntry
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		entry, err := parseRow(row, columns)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, errors.Errorf("rate table %s has no codes", path)
	}

	return NewRateTable(path, entries), nil
}

// parseRow extracts one RateEntry from a sheet row.
func parseRow(row []string, columns TableColumns) (RateEntry, error) {
	code := NormalizeCode(getCell(row, columns.CodeColumn))
	if !format.IsDigits(code) || len(code) != 3 {
		return RateEntry{}, errors.Errorf("invalid code %q", code)
	}

	annex, err := strconv.Atoi(strings.TrimSpace(getCell(row, columns.AnnexColumn)))
	if err != nil || annex < 1 || annex > 3 {
		return RateEntry{}, errors.Errorf("invalid annex %q for code %s", getCell(row, columns.AnnexColumn), code)
	}

	minimum, ok := format.ParseAmount(getCell(row, columns.MinimumColumn))
	if !ok || minimum.IsNegative() {
		return RateEntry{}, errors.Errorf("invalid minimum %q for code %s", getCell(row, columns.MinimumColumn), code)
	}

	return RateEntry{
		Code:        code,
		Description: strings.TrimSpace(getCell(row, columns.DescriptionColumn)),
		Annex:       annex,
		Minimum:     minimum,
	}, nil
}

// getCell safely gets a cell value from a row.
func getCell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
