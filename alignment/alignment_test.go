package alignment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

const summaryHeader = "read_id\talignment_genome\talignment_genome_start\talignment_genome_end\talignment_identity\n"

func TestSummarizeZeroTotal(t *testing.T) {
	lines := Summarize(nil).Lines()
	if lines[3] != "Percent classified: 0.000%" || lines[4] != "Percent unclassified: 0.000%" {
		t.Errorf("lines = %v", lines)
	}
}

func TestSummarizeCounts(t *testing.T) {
	s := Summarize([]string{"ref1", "*", "ref2", "*", "*"})
	if s.Total != 5 || s.Classified != 2 || s.Unclassified != 3 {
		t.Errorf("stats = %+v", s)
	}
	if s.Classified+s.Unclassified != s.Total {
		t.Error("totals do not add up")
	}
	want := []string{
		"Total reads: 5",
		"Classified reads: 2",
		"Unclassified reads: 3",
		"Percent classified: 40.000%",
		"Percent unclassified: 60.000%",
	}
	for i, l := range s.Lines() {
		if l != want[i] {
			t.Errorf("line %d = %q, want %q", i, l, want[i])
		}
	}
}

func TestSimpleStatisticsFromTable(t *testing.T) {
	save := t.TempDir()
	dir := filepath.Join(save, SummaryDirName)
	os.MkdirAll(dir, 0755)
	body := summaryHeader +
		"r1\tNC_001\t1\t100\t0.9\n" +
		"r2\t*\t-1\t-1\t-1\n" +
		"r3\tNC_002\t5\t90\t0.8\n"
	os.WriteFile(filepath.Join(dir, "guppy_aligner_barcode01.csv"), []byte(body), 0644)
	os.WriteFile(filepath.Join(dir, "guppy_aligner_barcode02.csv"), []byte(summaryHeader), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	stats, err := SimpleStatistics(save)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if got := stats["barcode01"]; got.Classified != 2 || got.Unclassified != 1 {
		t.Errorf("barcode01 = %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(save, StatsDirName, "simple_statistics_barcode02.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Percent classified: 0.000%\n") {
		t.Errorf("empty summary report:\n%s", data)
	}
}

func TestInspectReference(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.fasta")
	os.WriteFile(ref, []byte(">chr1 first\nACGTACGT\n>chr2\nGGCC\n"), 0644)
	info, err := InspectReference(ref)
	if err != nil {
		t.Fatal(err)
	}
	if info.Sequences != 2 || info.Bases != 12 || info.FirstID != "chr1" {
		t.Errorf("info = %+v", info)
	}

	empty := filepath.Join(dir, "empty.fasta")
	os.WriteFile(empty, nil, 0644)
	if _, err := InspectReference(empty); !errors.Is(err, ErrEmptyReference) {
		t.Errorf("empty reference err = %v", err)
	}

	index := filepath.Join(dir, "ref.mmi")
	os.WriteFile(index, []byte{0, 1}, 0644)
	if _, err := InspectReference(index); err != nil {
		t.Errorf("index err = %v", err)
	}
	if _, err := InspectReference(filepath.Join(dir, "missing.fasta")); err == nil {
		t.Error("expected error for missing reference")
	}
}

// guppyRunner imitates guppy_aligner writing into its save path.
type guppyRunner struct {
	seen []string
}

func (g *guppyRunner) Run(ctx context.Context, argv []string) (tools.Output, error) {
	var in, save string
	for i := 0; i+1 < len(argv); i++ {
		switch argv[i] {
		case "--input_path":
			in = argv[i+1]
		case "--save_path":
			save = argv[i+1]
		}
	}
	entries, _ := os.ReadDir(in)
	for _, e := range entries {
		g.seen = append(g.seen, e.Name())
	}
	os.MkdirAll(save, 0755)
	os.WriteFile(filepath.Join(save, "alignment_summary.txt"), []byte(summaryHeader+"r1\tref\t1\t2\t1\n"), 0644)
	os.WriteFile(filepath.Join(save, "read_processor_log-0.log"), []byte("log"), 0644)
	return tools.Output{}, nil
}

func TestGuppyLayout(t *testing.T) {
	in := t.TempDir()
	save := t.TempDir()
	for _, k := range []string{"barcode01", "barcode02"} {
		os.WriteFile(filepath.Join(in, "merged_"+k+".fastq"), []byte("@r\nA\n+\nI\n"), 0644)
	}
	ref := filepath.Join(t.TempDir(), "ref.fasta")
	os.WriteFile(ref, []byte(">r\nACGT\n"), 0644)

	runner := &guppyRunner{}
	cfg := utils.RunConfig{OutputRoot: save}
	s := tools.NewSession(cfg, "align", "guppy_aligner", runner, nil)
	s.Progress = nil

	fixed := time.Date(2023, 5, 6, 7, 8, 0, 0, time.UTC)
	res, err := Guppy(context.Background(), s, Options{Input: in, Save: save, Reference: ref, Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatal(err)
	}
	if res.Aligned != 2 || len(res.Stats) != 2 {
		t.Errorf("result = %+v", res)
	}
	// each run sees only its own file in scratch
	if len(runner.seen) != 2 || runner.seen[0] != "merged_barcode01.fastq" || runner.seen[1] != "merged_barcode02.fastq" {
		t.Errorf("scratch contents = %v", runner.seen)
	}

	for _, p := range []string{
		filepath.Join(save, SummaryDirName, "guppy_aligner_barcode01.csv"),
		filepath.Join(save, SummaryDirName, "guppy_aligner_barcode02.csv"),
		filepath.Join(save, logsDirName, "2023_05_06-07_08-barcode02.txt"),
		filepath.Join(save, StatsDirName, "simple_statistics_barcode01.txt"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s", p)
		}
	}
	if utils.IsDir(filepath.Join(save, scratchDirName)) {
		t.Error("scratch directory should be removed")
	}
	logData, _ := os.ReadFile(cfg.StageLogPath("guppy_aligner"))
	if strings.Count(string(logData), "guppy_aligner --input_path") != 2 {
		t.Errorf("script log:\n%s", logData)
	}
}

func TestGuppyRefusesEmptyReference(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "ref.fasta")
	os.WriteFile(ref, nil, 0644)
	s := tools.NewSession(utils.RunConfig{OutputRoot: t.TempDir()}, "align", "guppy_aligner", &guppyRunner{}, nil)
	_, err := Guppy(context.Background(), s, Options{Input: t.TempDir(), Save: t.TempDir(), Reference: ref})
	if !errors.Is(err, ErrEmptyReference) {
		t.Errorf("err = %v", err)
	}
}

func TestGuppyReportsUnstageableFile(t *testing.T) {
	in := t.TempDir()
	save := t.TempDir()
	os.WriteFile(filepath.Join(in, "merged_barcode01.fastq"), []byte("@r\nA\n+\nI\n"), 0644)
	os.WriteFile(filepath.Join(in, "merged_barcode03.fastq"), []byte("@r\nA\n+\nI\n"), 0644)
	broken := filepath.Join(in, "merged_barcode02.fastq")
	if err := os.Symlink(filepath.Join(in, "gone.fastq"), broken); err != nil {
		t.Skip(err)
	}
	ref := filepath.Join(t.TempDir(), "ref.fasta")
	os.WriteFile(ref, []byte(">r\nACGT\n"), 0644)

	runner := &guppyRunner{}
	s := tools.NewSession(utils.RunConfig{OutputRoot: save}, "align", "guppy_aligner", runner, nil)
	res, err := Guppy(context.Background(), s, Options{Input: in, Save: save, Reference: ref})
	if err != nil {
		t.Fatalf("one unreadable file must not abort the stage: %v", err)
	}
	if res.Aligned != 2 {
		t.Errorf("aligned = %d", res.Aligned)
	}
	if s.Report.Processed != 3 {
		t.Errorf("processed = %d", s.Report.Processed)
	}
	if len(s.Report.Failures) != 1 || s.Report.Failures[0].File != broken || s.Report.Failures[0].Kind != tools.IOFailure {
		t.Errorf("failures = %+v", s.Report.Failures)
	}
}
