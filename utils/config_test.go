package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadRunConfigDefaults(t *testing.T) {
	cfg, err := LoadRunConfig("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trim.ErrorRate != 0.15 {
		t.Errorf("error rate = %v", cfg.Trim.ErrorRate)
	}
	if cfg.Trim.Primer5 != DefaultPrimer5 || cfg.Trim.Primer3 != DefaultPrimer3 {
		t.Error("primer defaults not applied")
	}
	if cfg.Basecall.CPUThreadsPerCaller != 12 || cfg.Barcode.Kits != "EXP-PBC096" {
		t.Errorf("tool defaults: %+v %+v", cfg.Basecall, cfg.Barcode)
	}
	if cfg.Timeout != 0 {
		t.Errorf("timeout = %v, want disabled", cfg.Timeout)
	}
}

func TestLoadRunConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nanoflow.yaml")
	content := `input_root: /from/file
output_root: /from/file/out
timeout: 90m
trim:
  error_rate: 0.2
stages:
  merge:
    output: /elsewhere/merged
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("input", "", "")
	flags.String("output", "", "")
	if err := flags.Parse([]string{"--input", "/from/flag"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRunConfig(path, flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InputRoot != "/from/flag" {
		t.Errorf("input = %q, flag should win", cfg.InputRoot)
	}
	if cfg.OutputRoot != "/from/file/out" {
		t.Errorf("output = %q", cfg.OutputRoot)
	}
	if cfg.Timeout != 90*time.Minute {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
	if cfg.Trim.ErrorRate != 0.2 {
		t.Errorf("error rate = %v", cfg.Trim.ErrorRate)
	}
	if got := cfg.Override("merge").Output; got != "/elsewhere/merged" {
		t.Errorf("merge override = %q", got)
	}
	if got := cfg.StageLogPath("trim_reads"); got != filepath.Join("/from/file/out", "Script_Logs", "trim_reads_log.txt") {
		t.Errorf("stage log = %q", got)
	}
}

func TestToolNames(t *testing.T) {
	cfg := RunConfig{Tools: ToolPaths{Trimmer: "cutadapt", QC: "nanoQC", Plotter: "cutadapt"}}
	got := cfg.ToolNames()
	if len(got) != 2 || got[0] != "cutadapt" || got[1] != "nanoQC" {
		t.Errorf("ToolNames = %v", got)
	}
}
