/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gmaffy/nanoflow/pipeline"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nanoflow",
	Short: "A nanopore read-processing pipeline",
	Long: `nanoflow drives the external tools of a nanopore amplicon run:
1.	Basecalling and demultiplexing: (guppy_basecaller, guppy_barcoder)
2.	Read counting and merging per barcode
3.	Primer trimming: (cutadapt)
4.	Alignment: (guppy_aligner, minimap2 or vsearch)
5.	Quality control and plots: (nanoQC, NanoPlot)

Each stage is run on its own or chained with "run".
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string
var verbose bool
var skipDeps bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringP("input", "i", "", "input directory")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output root directory")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-invocation timeout, e.g. 90m (0 disables)")
	rootCmd.PersistentFlags().String("log-dir", "", "script log directory (default <output>/Script_Logs)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every tool invocation")
	rootCmd.PersistentFlags().BoolVar(&skipDeps, "skip-deps", false, "do not check tools on PATH first")
}

func loadConfig(cmd *cobra.Command) utils.RunConfig {
	cfg, err := utils.LoadRunConfig(cfgFile, cmd.Flags())
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if cfg.OutputRoot == "" {
		log.Fatalf("Please provide an output directory with -o or output_root in the config file")
	}
	return cfg
}

func newDriver(cfg utils.RunConfig) (*pipeline.Driver, io.Closer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := utils.NewLogger(cfg.RunLogPath(), os.Stderr, level)
	if err != nil {
		log.Fatalf("Error opening run log: %v", err)
	}
	return &pipeline.Driver{
		Config:   cfg,
		Runner:   tools.ExecRunner{},
		Logger:   logger,
		Out:      os.Stdout,
		Progress: os.Stderr,
	}, closer
}

// signalContext is cancelled on interrupt; the running tool is killed and
// earlier outputs are left in place.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// checkDeps stops the program when one of the tools is missing from PATH.
func checkDeps(names []string) {
	if skipDeps || len(names) == 0 {
		return
	}
	fmt.Printf("Checking dependencies ...\n\n")
	if _, err := utils.CheckDeps(names...); err != nil {
		log.Fatalf("Dependency check failed: %v", err)
	}
	fmt.Printf("Dependencies OK\n\n----------------------------------------------------------\n\n")
}

func runStage(cfg utils.RunConfig, stage pipeline.Stage) {
	d, closer := newDriver(cfg)
	checkDeps(d.Tools(stage, stage))
	ctx, stop := signalContext()
	_, err := d.RunStage(ctx, stage, "")
	stop()
	closer.Close()
	if err != nil {
		log.Fatalf("%s failed: %v", stage.Step(), err)
	}
}
