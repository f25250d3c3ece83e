/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"sort"

	"github.com/gmaffy/nanoflow/alignment"
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var simpleStatsCmd = &cobra.Command{
	Use:   "simpleStats -o <alignment output dir>",
	Short: "Summarize guppy_aligner alignment summaries",
	Long: `Reads every AlignmentSummary/guppy_aligner_<barcode>.csv under the output directory and writes
SimpleStatistics/simple_statistics_<barcode>.txt with total, classified and unclassified read counts.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		_, save := (&pipeline.Driver{Config: cfg}).Dirs(pipeline.Aligned, "")

		stats, err := alignment.SimpleStatistics(save)
		if err != nil {
			log.Fatalf("simpleStats: %v", err)
		}
		keys := lo.Keys(stats)
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s\n", key)
			for _, line := range stats[key].Lines() {
				fmt.Printf("  %s\n", line)
			}
		}
		fmt.Printf("%d summary table(s) processed\n", len(keys))
	},
}

func init() {
	rootCmd.AddCommand(simpleStatsCmd)
}
