// Package relocate moves tool output from scratch directories into the
// permanent results layout.
package relocate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gmaffy/nanoflow/utils"
)

const logStampLayout = "2006_01_02-15_04"

// Rule sends every file whose name satisfies Match to Dest(name).
type Rule struct {
	Match func(name string) bool
	Dest  func(name string) string
}

func Contains(sub string) func(string) bool {
	return func(name string) bool { return strings.Contains(name, sub) }
}

func HasSuffix(suffix string) func(string) bool {
	return func(name string) bool { return strings.HasSuffix(name, suffix) }
}

// To ignores the source name and always returns path.
func To(path string) func(string) string {
	return func(string) string { return path }
}

// Into keeps the source name inside dir.
func Into(dir string) func(string) string {
	return func(name string) string { return filepath.Join(dir, name) }
}

// Moved is one relocated file.
type Moved struct {
	From string
	To   string
}

// LogFileName is "YYYY_MM_DD-HH_MM-<key>.txt".
func LogFileName(now time.Time, key string) string {
	return fmt.Sprintf("%s-%s.txt", now.Format(logStampLayout), key)
}

// Relocate applies rules to the regular files directly inside srcDir. The
// first matching rule wins. A missing srcDir moves nothing.
func Relocate(srcDir string, rules []Rule) ([]Moved, error) {
	entries, err := os.ReadDir(srcDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var moved []Moved
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, r := range rules {
			if !r.Match(e.Name()) {
				continue
			}
			src := filepath.Join(srcDir, e.Name())
			dst := r.Dest(e.Name())
			if err := Move(src, dst); err != nil {
				return moved, err
			}
			moved = append(moved, Moved{From: src, To: dst})
			break
		}
	}
	return moved, nil
}

// Move renames src to dst, creating dst's parent and replacing an existing
// file. Across filesystems it copies then removes src.
func Move(src, dst string) error {
	if _, err := utils.EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return fmt.Errorf("cannot move %s: %s is a directory", src, dst)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyFile copies src over dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ResetScratch empties dir, creating it if needed.
func ResetScratch(dir string) error {
	return utils.ClearDir(dir)
}

// RemoveScratch deletes dir and all its contents.
func RemoveScratch(dir string) error {
	return os.RemoveAll(dir)
}

// Discard removes the regular files directly inside dir that match.
func Discard(dir string, match func(name string) bool) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
