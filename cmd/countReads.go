/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/nanoflow/counting"
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var countReadsCmd = &cobra.Command{
	Use:   "countReads -i <barcoded dir> -o <output dir> [-n file name]",
	Short: "Count reads per barcode",
	Long: `Counts FASTQ/FASTA records per barcode under the input directory and writes
barcode_counts.csv (barcode_number,reads_in_barcode) and a YAML snapshot to the output directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("name") {
			cfg.Count.FileName, _ = cmd.Flags().GetString("name")
		}

		// Validate before anything is written, including the run log.
		in, out := (&pipeline.Driver{Config: cfg}).Dirs(pipeline.Counted, "")
		if err := counting.Validate(counting.Options{Input: in, Output: out, FileName: cfg.Count.FileName}); err != nil {
			fmt.Println(err)
			log.Fatalf("countReads: invalid arguments")
		}
		runStage(cfg, pipeline.Counted)
	},
}

func init() {
	rootCmd.AddCommand(countReadsCmd)
	countReadsCmd.Flags().StringP("name", "n", "", "counts file name (default barcode_counts.csv)")
}
