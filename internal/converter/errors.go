package converter

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/ginjaninja78/sunat-detracciones/internal/types"
)

// ErrNoInput is returned when the input directory holds no XML documents,
// loose or inside zips.
var ErrNoInput = errors.New("no valid XML files found")

// ErrAllRejected matches every *RejectedBatchError.
var ErrAllRejected = errors.New("all files were rejected by validation")

// RejectedBatchError reports a run where every file was rejected. The
// rejection report has already been written when this is returned.
type RejectedBatchError struct {
	// Rejected is the number of rejected files.
	Rejected int

	// Summary is the top-reasons line, e.g. "Motivos principales: ...".
	Summary string

	// ReportPath is the omitidos.csv path.
	ReportPath string
}

func (e *RejectedBatchError) Error() string {
	return "no se generó el TXT porque no hay registros válidos (todos fueron omitidos). " + e.Summary
}

// Is makes errors.Is(err, ErrAllRejected) hold.
func (e *RejectedBatchError) Is(target error) bool {
	return target == ErrAllRejected
}

// Coherence dimensions.
const (
	DimensionAcquirers = "adquirientes"
	DimensionSuppliers = "proveedores"
	DimensionAccounts  = "cuentas BN"
)

// CoherenceError reports a batch whose accepted records do not share a single
// depositor (or bank account). Nothing is written when this is returned.
type CoherenceError struct {
	Mode      types.DepositorMode
	Dimension string
	Count     int
}

func (e *CoherenceError) Error() string {
	switch e.Dimension {
	case DimensionAcquirers:
		return fmt.Sprintf("modo '%s': se detectaron %d adquirientes distintos en los XML; separe el lote por adquiriente o elija el modo correcto",
			e.Mode, e.Count)
	case DimensionSuppliers:
		return fmt.Sprintf("modo '%s': se detectaron %d proveedores distintos en los XML; separe el lote por proveedor o elija el modo 'adquiriente'",
			e.Mode, e.Count)
	default:
		return fmt.Sprintf("modo '%s': se detectaron %d %s distintas; la cuenta BN del proveedor debe ser única en todo el lote",
			e.Mode, e.Count, e.Dimension)
	}
}
