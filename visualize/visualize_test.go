package visualize

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/nanoflow/counting"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

func sample() *counting.Summary {
	s := counting.NewSummary()
	s.Add("barcode01", 10, "")
	s.Add("barcode02", 20, "")
	s.Add("barcode03", 60, "")
	s.Add("unclassified", 7, "")
	s.Add("unclassified1", 3, "")
	return s
}

func TestDescribeExcludesUnclassified(t *testing.T) {
	d := Describe(sample())
	if d.Barcodes != 3 || d.Unclassified != 10 {
		t.Errorf("description = %+v", d)
	}
	if math.Abs(d.Mean-30) > 1e-9 || d.Median != 20 {
		t.Errorf("mean = %v, median = %v", d.Mean, d.Median)
	}
}

func TestDescribeOnlyUnclassified(t *testing.T) {
	s := counting.NewSummary()
	s.Add("unclassified", 4, "")
	d := Describe(s)
	if d.Barcodes != 0 || d.Mean != 0 || d.Unclassified != 4 {
		t.Errorf("description = %+v", d)
	}
}

func TestRenderCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viz", ReportName)
	if err := RenderCounts(sample(), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"barcode03", "Unclassified Reads: 10", "Average reads (excluding unclassified): 30"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

type recordingRunner struct{ argv [][]string }

func (r *recordingRunner) Run(ctx context.Context, argv []string) (tools.Output, error) {
	r.argv = append(r.argv, argv)
	return tools.Output{}, nil
}

func TestRunPlotsEachFile(t *testing.T) {
	in := t.TempDir()
	save := t.TempDir()
	os.WriteFile(filepath.Join(in, "trimmed_barcode01.fastq"), []byte("@r\n"), 0644)
	os.WriteFile(filepath.Join(in, "trimmed_unclassified.fastq"), []byte("@r\n"), 0644)
	counts := filepath.Join(t.TempDir(), "barcode_counts.csv")
	sample().WriteCSV(counts)

	runner := &recordingRunner{}
	s := tools.NewSession(utils.RunConfig{OutputRoot: save}, "visualize", "visualize", runner, nil)
	s.Progress = nil
	if err := Run(context.Background(), s, Options{Input: in, Save: save, CountsFile: counts}); err != nil {
		t.Fatal(err)
	}
	if len(runner.argv) != 2 {
		t.Fatalf("calls = %v", runner.argv)
	}
	if got := runner.argv[0][len(runner.argv[0])-1]; got != filepath.Join(save, "barcode01") {
		t.Errorf("outdir = %s", got)
	}
	if _, err := os.Stat(filepath.Join(save, ReportName)); err != nil {
		t.Errorf("report missing: %v", err)
	}
}
