/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run -i <fast5 dir> -o <output dir> [--from stage] [--to stage]",
	Short: "Run a range of stages in order",
	Long: `Runs the stages basecall, barcode, count, merge, trim, align, qc and visualize in that order,
each reading the previous stage's reads. --resume skips stages the run log records as completed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		fromName, _ := cmd.Flags().GetString("from")
		toName, _ := cmd.Flags().GetString("to")
		from, err := pipeline.ParseStage(fromName)
		if err != nil {
			log.Fatalf("Error getting from flag: %v", err)
		}
		to, err := pipeline.ParseStage(toName)
		if err != nil {
			log.Fatalf("Error getting to flag: %v", err)
		}

		d, closer := newDriver(cfg)
		d.Resume, _ = cmd.Flags().GetBool("resume")

		checkDeps(d.Tools(from, to))

		ctx, stop := signalContext()
		results, err := d.Run(ctx, from, to)
		stop()
		closer.Close()
		for _, res := range results {
			if res.Skipped {
				fmt.Printf("%s: skipped, already completed\n", res.Stage.Step())
			}
		}
		if err != nil {
			log.Fatalf("Pipeline stopped: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("from", "basecall", "first stage")
	runCmd.Flags().String("to", "visualize", "last stage")
	runCmd.Flags().Bool("resume", false, "skip stages already completed for the same input")
}
