/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var barcodeCmd = &cobra.Command{
	Use:   "barcode -i <basecalled dir> -o <output dir>",
	Short: "Demultiplex reads with guppy_barcoder",
	Long:  `Sorts basecalled reads into <output>/barcoded/barcodeNN and <output>/barcoded/unclassified.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("kits") {
			cfg.Barcode.Kits, _ = cmd.Flags().GetString("kits")
		}
		runStage(cfg, pipeline.Barcoded)
	},
}

func init() {
	rootCmd.AddCommand(barcodeCmd)
	barcodeCmd.Flags().StringP("kits", "k", "", "barcode kits (default EXP-PBC096)")
}
