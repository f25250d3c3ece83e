package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPrimer5   = "TTTCTGTTGGTGCTGATATTGCAGRGTTYGATYMTGGCTCAG"
	DefaultPrimer3   = "ACTTGCCTGTCGCTCTATCTTCTACCTTGTTACGACTT"
	DefaultErrorRate = 0.15
)

// RunConfig holds every path and parameter a run needs. It is passed to each
// stage explicitly.
type RunConfig struct {
	InputRoot  string        `mapstructure:"input_root"`
	OutputRoot string        `mapstructure:"output_root"`
	LogDir     string        `mapstructure:"log_dir"`
	Timeout    time.Duration `mapstructure:"timeout"`

	Tools     ToolPaths       `mapstructure:"tools"`
	Basecall  BasecallConfig  `mapstructure:"basecall"`
	Barcode   BarcodeConfig   `mapstructure:"barcode"`
	Count     CountConfig     `mapstructure:"count"`
	Trim      TrimConfig      `mapstructure:"trim"`
	Align     AlignConfig     `mapstructure:"align"`
	QC        QCConfig        `mapstructure:"qc"`
	Visualize VisualizeConfig `mapstructure:"visualize"`

	Stages map[string]StageDirs `mapstructure:"stages"`
}

// ToolPaths names the executables. Bare names are resolved on PATH.
type ToolPaths struct {
	Basecaller string `mapstructure:"basecaller"`
	Barcoder   string `mapstructure:"barcoder"`
	Aligner    string `mapstructure:"aligner"`
	Minimap2   string `mapstructure:"minimap2"`
	VSearch    string `mapstructure:"vsearch"`
	Trimmer    string `mapstructure:"trimmer"`
	QC         string `mapstructure:"qc"`
	Plotter    string `mapstructure:"plotter"`
}

type BasecallConfig struct {
	Config              string `mapstructure:"config"`
	NumCallers          int    `mapstructure:"num_callers"`
	CPUThreadsPerCaller int    `mapstructure:"cpu_threads_per_caller"`
}

type BarcodeConfig struct {
	Config          string `mapstructure:"config"`
	WorkerThreads   int    `mapstructure:"worker_threads"`
	Kits            string `mapstructure:"kits"`
	RequireBothEnds bool   `mapstructure:"require_both_ends"`
}

type CountConfig struct {
	FileName   string   `mapstructure:"file_name"`
	Extensions []string `mapstructure:"extensions"`
}

type TrimConfig struct {
	Primer3   string  `mapstructure:"primer3"`
	Primer5   string  `mapstructure:"primer5"`
	ErrorRate float64 `mapstructure:"error_rate"`
	Jobs      int     `mapstructure:"jobs"`
}

type AlignConfig struct {
	// Aligner is "guppy", "minimap2" or "vsearch".
	Aligner   string  `mapstructure:"aligner"`
	Reference string  `mapstructure:"reference"`
	MatchRate float64 `mapstructure:"match_rate"`
}

type QCConfig struct {
	Tool string `mapstructure:"tool"`
}

type VisualizeConfig struct {
	CountsFile string `mapstructure:"counts_file"`
}

// StageDirs overrides the directories a stage reads from and writes to.
type StageDirs struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", "0s")

	v.SetDefault("tools.basecaller", "guppy_basecaller")
	v.SetDefault("tools.barcoder", "guppy_barcoder")
	v.SetDefault("tools.aligner", "guppy_aligner")
	v.SetDefault("tools.minimap2", "minimap2")
	v.SetDefault("tools.vsearch", "vsearch")
	v.SetDefault("tools.trimmer", "cutadapt")
	v.SetDefault("tools.qc", "nanoQC")
	v.SetDefault("tools.plotter", "NanoPlot")

	v.SetDefault("basecall.config", "dna_r9.4.1_450bps_fast.cfg")
	v.SetDefault("basecall.num_callers", 1)
	v.SetDefault("basecall.cpu_threads_per_caller", 12)

	v.SetDefault("barcode.config", "configuration.cfg")
	v.SetDefault("barcode.worker_threads", 12)
	v.SetDefault("barcode.kits", "EXP-PBC096")
	v.SetDefault("barcode.require_both_ends", true)

	v.SetDefault("count.extensions", []string{".fastq", ".fasta"})

	v.SetDefault("trim.primer3", DefaultPrimer3)
	v.SetDefault("trim.primer5", DefaultPrimer5)
	v.SetDefault("trim.error_rate", DefaultErrorRate)
	v.SetDefault("trim.jobs", 0)

	v.SetDefault("align.aligner", "guppy")
	v.SetDefault("align.match_rate", 0.90)
	v.SetDefault("qc.tool", "nanoQC")
}

// LoadRunConfig layers defaults, an optional config file, NANOFLOW_*
// environment variables and the given flags (may be nil).
func LoadRunConfig(configPath string, flags *pflag.FlagSet) (RunConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NANOFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return RunConfig{}, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	if flags != nil {
		for key, name := range map[string]string{
			"input_root":  "input",
			"output_root": "output",
			"timeout":     "timeout",
			"log_dir":     "log-dir",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return RunConfig{}, err
				}
			}
		}
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.LogDir == "" && cfg.OutputRoot != "" {
		cfg.LogDir = filepath.Join(cfg.OutputRoot, "Script_Logs")
	}
	return cfg, nil
}

// StageLogPath is the append-only script log for a stage.
func (c RunConfig) StageLogPath(stage string) string {
	dir := c.LogDir
	if dir == "" {
		dir = filepath.Join(c.OutputRoot, "Script_Logs")
	}
	return filepath.Join(dir, stage+"_log.txt")
}

// RunLogPath is the structured JSON log of the run.
func (c RunConfig) RunLogPath() string {
	return filepath.Join(c.OutputRoot, "nanoflow.log")
}

// Override returns the configured directory override for a stage.
func (c RunConfig) Override(stage string) StageDirs {
	if c.Stages == nil {
		return StageDirs{}
	}
	return c.Stages[stage]
}
