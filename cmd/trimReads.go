/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var trimReadsCmd = &cobra.Command{
	Use:   "trimReads -i <merged dir> -o <output dir>",
	Short: "Trim primers with cutadapt",
	Long:  `Removes the 3' and 5' primers from every read file into <output>/trimmed/trimmed_<barcode><ext>.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("error-rate") {
			cfg.Trim.ErrorRate, _ = cmd.Flags().GetFloat64("error-rate")
		}
		if cmd.Flags().Changed("jobs") {
			cfg.Trim.Jobs, _ = cmd.Flags().GetInt("jobs")
		}
		runStage(cfg, pipeline.Trimmed)
	},
}

func init() {
	rootCmd.AddCommand(trimReadsCmd)
	trimReadsCmd.Flags().Float64P("error-rate", "e", 0.15, "maximum primer error rate")
	trimReadsCmd.Flags().IntP("jobs", "j", 0, "cutadapt cores (0 = auto)")
}
