/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"log"

	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/spf13/cobra"
)

var alignReadsCmd = &cobra.Command{
	Use:   "alignReads -i <trimmed dir> -o <output dir> -r <reference>",
	Short: "Align reads to a reference database",
	Long: `Aligns every read file with guppy_aligner (default), minimap2 or vsearch.
guppy_aligner results are laid out as AlignmentSummary/, logs/ and SimpleStatistics/ under the output directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("aligner") {
			cfg.Align.Aligner, _ = cmd.Flags().GetString("aligner")
		}
		if cmd.Flags().Changed("reference") {
			cfg.Align.Reference, _ = cmd.Flags().GetString("reference")
		}
		if cmd.Flags().Changed("match-rate") {
			cfg.Align.MatchRate, _ = cmd.Flags().GetFloat64("match-rate")
		}
		if cfg.Align.Reference == "" && cfg.Align.Aligner != "vsearch" {
			log.Fatalf("Please provide a reference with -r or align.reference in the config file")
		}
		if cfg.Align.Aligner == "vsearch" {
			rate, err := tools.NormalizeMatchRate(cfg.Align.MatchRate)
			if err != nil {
				log.Fatalf("alignReads: %v", err)
			}
			cfg.Align.MatchRate = rate
		}
		runStage(cfg, pipeline.Aligned)
	},
}

func init() {
	rootCmd.AddCommand(alignReadsCmd)
	alignReadsCmd.Flags().StringP("aligner", "a", "guppy", "aligner: guppy, minimap2 or vsearch")
	alignReadsCmd.Flags().StringP("reference", "r", "", "reference database (FASTA or minimap2 index)")
	alignReadsCmd.Flags().Float64P("match-rate", "m", 0.90, "vsearch identity, a fraction or a percentage")
}
