package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	created, err := EnsureDir(dir)
	if err != nil || !created {
		t.Fatalf("first EnsureDir = %v, %v", created, err)
	}
	created, err = EnsureDir(dir)
	if err != nil || created {
		t.Fatalf("second EnsureDir = %v, %v", created, err)
	}

	file := filepath.Join(dir, "f")
	os.WriteFile(file, nil, 0644)
	if _, err := EnsureDir(file); err == nil {
		t.Error("expected error for regular file")
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	os.WriteFile(filepath.Join(dir, "sub", "x"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "y"), []byte("y"), 0644)

	if err := ClearDir(dir); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left", len(entries))
	}
	if !IsDir(dir) {
		t.Error("dir itself should remain")
	}
}

func TestCheckDepsReportsMissing(t *testing.T) {
	found, err := CheckDeps("definitely-not-a-real-tool-xyz")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(found) != 0 {
		t.Errorf("found = %v", found)
	}
}
