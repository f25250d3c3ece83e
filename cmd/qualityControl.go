/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var qualityControlCmd = &cobra.Command{
	Use:   "qualityControl -i <trimmed dir> -o <output dir>",
	Short: "Run nanoQC on every read file",
	Long:  `Writes <output>/QualityControl/nanoQC_<barcode>.html and the matching logs/<barcode>.log.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("tool") {
			cfg.QC.Tool, _ = cmd.Flags().GetString("tool")
		}
		runStage(cfg, pipeline.QCd)
	},
}

func init() {
	rootCmd.AddCommand(qualityControlCmd)
	qualityControlCmd.Flags().StringP("tool", "t", "nanoQC", "quality control tool (nanoQC or fastqc)")
}
