package merging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/gmaffy/nanoflow/tools"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	os.MkdirAll(filepath.Dir(path), 0755)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	parent := t.TempDir()
	write(t, filepath.Join(parent, "barcode01", "a.fastq"), "@a\nAC\n+\nII\n")
	write(t, filepath.Join(parent, "barcode01", "b.fastq"), "@b\nGT\n+\nII\n")

	merged, err := Merge(Options{Parent: parent})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 {
		t.Fatalf("merged = %+v", merged)
	}
	want := filepath.Join(parent, DirName, "merged_barcode01.fastq")
	if merged[0].Path != want {
		t.Errorf("path = %s, want %s", merged[0].Path, want)
	}
	data, _ := os.ReadFile(want)
	if string(data) != "@a\nAC\n+\nII\n@b\nGT\n+\nII\n" {
		t.Errorf("content = %q", data)
	}
}

func TestMergeIsRepeatable(t *testing.T) {
	parent := t.TempDir()
	write(t, filepath.Join(parent, "barcode02", "x.fastq"), "@x\n")
	bcDir := filepath.Join(parent, "barcode02")

	// a stale product left in the barcode directory is never concatenated
	for i := 0; i < 3; i++ {
		if _, err := Merge(Options{Parent: parent, Dest: filepath.Join(parent, DirName)}); err != nil {
			t.Fatal(err)
		}
		write(t, filepath.Join(bcDir, "merged_barcode02.fastq"), "@stale\n")
	}
	data, _ := os.ReadFile(filepath.Join(parent, DirName, "merged_barcode02.fastq"))
	if string(data) != "@x\n" {
		t.Errorf("content = %q", data)
	}
	entries, _ := os.ReadDir(filepath.Join(parent, DirName))
	if len(entries) != 1 {
		t.Errorf("%d files in merge dir", len(entries))
	}
}

func TestMergedName(t *testing.T) {
	cases := []struct{ first, key, want string }{
		{"a.fastq", "barcode01", "merged_barcode01.fastq"},
		{"/x/fastq_runid_abc123_0_0.fastq", "barcode05", "merged_abc123_barcode05.fastq"},
		{"reads.fasta.gz", "unclassified", "merged_unclassified.fasta.gz"},
	}
	for _, c := range cases {
		if got := MergedName(c.first, c.key); got != c.want {
			t.Errorf("MergedName(%q, %q) = %q, want %q", c.first, c.key, got, c.want)
		}
	}
}

func TestIsMergeProduct(t *testing.T) {
	if !IsMergeProduct("merged_barcode01.fastq", "barcode01") {
		t.Error("plain product")
	}
	if !IsMergeProduct("merged_abc_barcode01.fastq.gz", "barcode01") {
		t.Error("run id product")
	}
	if IsMergeProduct("reads_barcode01.fastq", "barcode01") {
		t.Error("not a product")
	}
	if IsMergeProduct("merged_barcode02.fastq", "barcode01") {
		t.Error("other key")
	}
}

func TestMergeSkipsNonBarcodeDirs(t *testing.T) {
	parent := t.TempDir()
	write(t, filepath.Join(parent, "logs", "x.fastq"), "@x\n")
	write(t, filepath.Join(parent, "unclassified", "u.fastq"), "@u\n")

	merged, err := Merge(Options{Parent: parent})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 1 || merged[0].Key != "unclassified" {
		t.Errorf("merged = %+v", merged)
	}
}

func TestMergePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	parent := t.TempDir()
	write(t, filepath.Join(parent, "barcode01", "a.fastq"), "@a\n")
	locked := filepath.Join(t.TempDir(), "locked")
	os.MkdirAll(locked, 0555)
	defer os.Chmod(locked, 0755)

	_, err := Merge(Options{Parent: parent, Dest: filepath.Join(locked, DirName)})
	var pe *PermissionError
	if !errors.As(err, &pe) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("err = %v", err)
	}
}

func TestMergeSiblingUnclassifiedDirs(t *testing.T) {
	parent := t.TempDir()
	write(t, filepath.Join(parent, "unclassified", "fastq_runid_abc_0.fastq"), "@u0\n")
	write(t, filepath.Join(parent, "unclassified_run2", "fastq_runid_abc_0.fastq"), "@u1\n")

	merged, err := Merge(Options{Parent: parent})
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 2 {
		t.Fatalf("merged = %+v", merged)
	}
	want := map[string]string{
		"merged_abc_unclassified.fastq":  "@u0\n",
		"merged_abc_unclassified1.fastq": "@u1\n",
	}
	for name, content := range want {
		data, err := os.ReadFile(filepath.Join(parent, DirName, name))
		if err != nil {
			t.Errorf("missing %s", name)
			continue
		}
		if string(data) != content {
			t.Errorf("%s = %q, want %q", name, data, content)
		}
	}
}

func TestMergeContinuesPastUnreadableFile(t *testing.T) {
	parent := t.TempDir()
	write(t, filepath.Join(parent, "barcode01", "a.fastq"), "@a\n")
	write(t, filepath.Join(parent, "barcode03", "c.fastq"), "@c\n")
	broken := filepath.Join(parent, "barcode02")
	os.MkdirAll(broken, 0755)
	if err := os.Symlink(filepath.Join(parent, "gone.fastq"), filepath.Join(broken, "b.fastq")); err != nil {
		t.Skip(err)
	}

	report := tools.NewReport("merge")
	merged, err := Merge(Options{Parent: parent, Report: report})
	if err != nil {
		t.Fatalf("one bad barcode must not abort the merge: %v", err)
	}
	if len(merged) != 2 || merged[0].Key != "barcode01" || merged[1].Key != "barcode03" {
		t.Errorf("merged = %+v", merged)
	}
	if len(report.Failures) != 1 || report.Failures[0].File != broken || report.Failures[0].Kind != tools.IOFailure {
		t.Errorf("failures = %+v", report.Failures)
	}
	if _, err := os.Stat(filepath.Join(parent, DirName, "merged_barcode02.fastq")); err == nil {
		t.Error("partial output should be removed")
	}
}
