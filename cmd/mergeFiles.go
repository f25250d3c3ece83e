/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var mergeFilesCmd = &cobra.Command{
	Use:   "mergeFiles -i <barcoded dir> -o <output dir>",
	Short: "Merge the read files of each barcode",
	Long:  `Concatenates every read file in each barcode subdirectory into <output>/_merged_files/merged_<runid>_<barcode><ext>.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStage(loadConfig(cmd), pipeline.Merged)
	},
}

func init() {
	rootCmd.AddCommand(mergeFilesCmd)
}
