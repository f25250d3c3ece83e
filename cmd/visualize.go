/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize -i <trimmed dir> -o <output dir>",
	Short: "Plot read statistics and barcode counts",
	Long:  `Runs NanoPlot per read file into <output>/Visualizations/<barcode> and renders the barcode count chart from barcode_counts.csv.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("counts") {
			cfg.Visualize.CountsFile, _ = cmd.Flags().GetString("counts")
		}
		runStage(cfg, pipeline.Visualized)
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visualizeCmd.Flags().String("counts", "", "counts table (default <output>/barcode_counts.csv)")
}
