package trimming

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

// cutadaptRunner rejects anything that is not FASTQ the way cutadapt does.
type cutadaptRunner struct{}

func (cutadaptRunner) Run(ctx context.Context, argv []string) (tools.Output, error) {
	in := argv[len(argv)-1]
	if !strings.HasSuffix(in, ".fastq") {
		return tools.Output{ExitCode: 1, Stderr: "cutadapt: error: Unknown Input File Format"}, nil
	}
	return tools.Output{}, nil
}

func TestTrimReportsUnknownFormat(t *testing.T) {
	in := t.TempDir()
	save := filepath.Join(t.TempDir(), "trimmed")
	os.WriteFile(filepath.Join(in, "merged_barcode01.fastq"), []byte("@r\nA\n+\nI\n"), 0644)
	os.WriteFile(filepath.Join(in, "barcode_counts.csv"), []byte("x"), 0644)

	cfg := utils.RunConfig{OutputRoot: t.TempDir()}
	s := tools.NewSession(cfg, "trim", "trim_reads", cutadaptRunner{}, nil)
	s.Progress = nil

	n, err := Trim(context.Background(), s, Options{Input: in, Save: save, ErrorRate: utils.DefaultErrorRate})
	if err != nil {
		t.Fatalf("stage must not fail on unknown files: %v", err)
	}
	if n != 1 {
		t.Errorf("trimmed = %d", n)
	}
	if files := s.Report.Files(); len(files) != 1 || filepath.Base(files[0]) != "barcode_counts.csv" {
		t.Errorf("report = %v", files)
	}
	if s.Report.Failures[0].Kind != tools.MalformedInput {
		t.Errorf("kind = %v", s.Report.Failures[0].Kind)
	}
	if _, err := os.Stat(filepath.Join(save, "trimmed_barcode01.fastq")); err != nil {
		t.Errorf("output not pre-created: %v", err)
	}

	logData, _ := os.ReadFile(cfg.StageLogPath("trim_reads"))
	if !strings.Contains(string(logData), "-e 0.15") || !strings.Contains(string(logData), utils.DefaultPrimer3) {
		t.Errorf("script log:\n%s", logData)
	}
}

func TestTrimKeepsUnclassifiedIndex(t *testing.T) {
	in := t.TempDir()
	save := filepath.Join(t.TempDir(), "trimmed")
	os.WriteFile(filepath.Join(in, "merged_abc_unclassified.fastq"), []byte("@u0\n"), 0644)
	os.WriteFile(filepath.Join(in, "merged_abc_unclassified1.fastq"), []byte("@u1\n"), 0644)

	s := tools.NewSession(utils.RunConfig{OutputRoot: t.TempDir()}, "trim", "trim_reads", cutadaptRunner{}, nil)
	n, err := Trim(context.Background(), s, Options{Input: in, Save: save, ErrorRate: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("trimmed = %d", n)
	}
	for _, name := range []string{"trimmed_unclassified.fastq", "trimmed_unclassified1.fastq"} {
		if _, err := os.Stat(filepath.Join(save, name)); err != nil {
			t.Errorf("missing %s", name)
		}
	}
}

func TestTrimReportsUncreatableOutput(t *testing.T) {
	in := t.TempDir()
	save := filepath.Join(t.TempDir(), "trimmed")
	os.WriteFile(filepath.Join(in, "merged_barcode01.fastq"), []byte("@r\n"), 0644)
	os.WriteFile(filepath.Join(in, "merged_barcode02.fastq"), []byte("@r\n"), 0644)
	// a directory where the output file should go
	os.MkdirAll(filepath.Join(save, "trimmed_barcode01.fastq"), 0755)

	s := tools.NewSession(utils.RunConfig{OutputRoot: t.TempDir()}, "trim", "trim_reads", cutadaptRunner{}, nil)
	n, err := Trim(context.Background(), s, Options{Input: in, Save: save, ErrorRate: 0.1})
	if err != nil {
		t.Fatalf("one bad output must not abort the stage: %v", err)
	}
	if n != 1 {
		t.Errorf("trimmed = %d", n)
	}
	if s.Report.Processed != 2 {
		t.Errorf("processed = %d", s.Report.Processed)
	}
	f := s.Report.Failures
	if len(f) != 1 || filepath.Base(f[0].File) != "merged_barcode01.fastq" || f[0].Kind != tools.IOFailure {
		t.Errorf("failures = %+v", f)
	}
}

func TestTrimPassesZeroErrorRate(t *testing.T) {
	in := t.TempDir()
	os.WriteFile(filepath.Join(in, "merged_barcode01.fastq"), []byte("@r\n"), 0644)

	cfg := utils.RunConfig{OutputRoot: t.TempDir()}
	s := tools.NewSession(cfg, "trim", "trim_reads", cutadaptRunner{}, nil)
	if _, err := Trim(context.Background(), s, Options{Input: in, Save: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	logData, _ := os.ReadFile(cfg.StageLogPath("trim_reads"))
	if !strings.Contains(string(logData), "-e 0 -o") {
		t.Errorf("error rate 0 should reach cutadapt:\n%s", logData)
	}
}
