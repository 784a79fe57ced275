// =============================================================================
// SUNAT Detracciones - Main Entry Point
// =============================================================================
//
// USAGE:
//   detracciones process   - Build D<ruc><lote>.txt and omitidos.csv from the input
//   detracciones validate  - Validate configuration and rate table without processing
//   detracciones count     - Count XML documents in the input, zip members included
//   detracciones version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : parsing, validation, encoding and the pipeline
//   - pkg/      : input collection, zip staging and output bundling
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sunat-detracciones/cmd"
)

func main() {
	cmd.Execute()
}
