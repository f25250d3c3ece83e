/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/spf13/cobra"
)

var basecallCmd = &cobra.Command{
	Use:   "basecall -i <fast5 dir> -o <output dir>",
	Short: "Basecall raw signal with guppy_basecaller",
	Long:  `Runs guppy_basecaller recursively over the input directory into <output>/basecalled and moves its logs into <output>/basecalled/logs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("guppy-config") {
			cfg.Basecall.Config, _ = cmd.Flags().GetString("guppy-config")
		}
		runStage(cfg, pipeline.Basecalled)
	},
}

func init() {
	rootCmd.AddCommand(basecallCmd)
	basecallCmd.Flags().String("guppy-config", "", "guppy basecalling config (default dna_r9.4.1_450bps_fast.cfg)")
}
