// =============================================================================
// SUNAT Detracciones - Count Command
// =============================================================================
//
// This file defines the 'count' command, which counts the XML documents an
// upload would process: .xml files plus the .xml members of .zip files.
// Unlike 'process', a corrupt zip is an error here.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sunat-detracciones/pkg/utils"
)

// countInput overrides input_dir when set.
var countInput string

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count the XML documents in the input directory, zip members included",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("input") {
			cfg.InputDir = countInput
		}

		n, err := utils.CountXMLFiles(cfg.InputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d XML document(s) in %s\n", n, cfg.InputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
	countCmd.Flags().StringVar(&countInput, "input", "", "Directory with .xml and .zip files (overrides input_dir)")
}
