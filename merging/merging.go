// Package merging concatenates the read files of each barcode directory.
package merging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

const (
	DirName = "_merged_files"
	prefix  = "merged_"
)

// PermissionError is returned when the merge directory cannot be created.
type PermissionError struct {
	Dir string
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no permission to create merge directory %s: %v", e.Dir, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

type Options struct {
	// Parent holds one subdirectory per barcode.
	Parent string
	// Dest defaults to Parent/_merged_files.
	Dest       string
	Extensions []string

	Script *utils.ScriptLog
	Logger *slog.Logger
	// Report, when set, receives the barcodes that could not be merged.
	Report *tools.Report
}

// Merged is one output file.
type Merged struct {
	Key    string
	Path   string
	Inputs []string
	Bytes  int64
}

// runID returns the token after "runid_" in name, if any.
func runID(name string) string {
	i := strings.Index(name, "runid_")
	if i < 0 {
		return ""
	}
	rest := name[i+len("runid_"):]
	if j := strings.IndexAny(rest, "_."); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// MergedName is "merged_[<runid>_]<key><ext>" where runid and ext come from
// the first input file.
func MergedName(firstFile, key string) string {
	base := filepath.Base(firstFile)
	name := prefix
	if id := runID(base); id != "" {
		name += id + "_"
	}
	return name + key + files.FormatExt(base)
}

// IsMergeProduct reports whether name looks like an earlier output of
// MergedName for key.
func IsMergeProduct(name, key string) bool {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, prefix) {
		return false
	}
	stem := strings.TrimSuffix(base, files.FormatExt(base))
	return stem == prefix+key || strings.HasSuffix(stem, "_"+key)
}

// Merge clears the destination and writes one merged file per barcode
// subdirectory of Parent. Subdirectories without a barcode are skipped. A
// barcode whose files cannot be read or written is logged, reported and
// left out; the other barcodes are still merged.
func Merge(opts Options) ([]Merged, error) {
	dest := opts.Dest
	if dest == "" {
		dest = filepath.Join(opts.Parent, DirName)
	}
	if !utils.IsDir(opts.Parent) {
		return nil, fmt.Errorf("merge input %s is not a directory", opts.Parent)
	}
	if _, err := utils.EnsureDir(dest); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, &PermissionError{Dir: dest, Err: err}
		}
		return nil, err
	}
	if err := utils.ClearDir(dest); err != nil {
		return nil, err
	}
	absDest, _ := filepath.Abs(dest)

	entries, err := os.ReadDir(opts.Parent)
	if err != nil {
		return nil, err
	}

	reg := barcode.NewRegistry()
	var out []Merged
	for _, e := range entries {
		if !e.IsDir() || e.Name() == DirName {
			continue
		}
		dir := filepath.Join(opts.Parent, e.Name())
		if abs, _ := filepath.Abs(dir); abs == absDest {
			continue
		}
		k, err := reg.Resolve(e.Name())
		if err != nil {
			logLine(opts, "Skipping %s: %v", dir, err)
			continue
		}
		key := k.String()

		inputs, err := inputsFor(dir, key, opts.Extensions)
		if err != nil {
			failed(opts, dir, key, err)
			continue
		}
		if len(inputs) == 0 {
			logLine(opts, "No files to merge for %s", key)
			continue
		}

		target := filepath.Join(dest, MergedName(inputs[0], key))
		n, err := Concat(target, inputs)
		if err != nil {
			os.Remove(target)
			failed(opts, dir, key, err)
			continue
		}
		logLine(opts, "Merged %d file(s) for %s into %s", len(inputs), key, target)
		logger(opts).Debug("NANOFLOW", "PROGRAM", "merge", "SAMPLE", key, "STATUS", "MERGED", "FILES", len(inputs), "BYTES", n)
		out = append(out, Merged{Key: key, Path: target, Inputs: inputs, Bytes: n})
	}
	return out, nil
}

func inputsFor(dir, key string, exts []string) ([]string, error) {
	paths, err := files.Collect(dir, exts)
	if err != nil {
		return nil, err
	}
	var keep []string
	for _, p := range paths {
		if IsMergeProduct(p, key) {
			continue
		}
		keep = append(keep, p)
	}
	return keep, nil
}

// Concat writes inputs one after another into target, replacing it.
func Concat(target string, inputs []string) (int64, error) {
	out, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range inputs {
		in, err := os.Open(p)
		if err != nil {
			out.Close()
			return total, err
		}
		n, err := io.Copy(out, in)
		in.Close()
		total += n
		if err != nil {
			out.Close()
			return total, err
		}
	}
	return total, out.Close()
}

func failed(opts Options, dir, key string, err error) {
	logLine(opts, "Could not merge %s: %v", key, err)
	logger(opts).Warn("NANOFLOW", "PROGRAM", "merge", "SAMPLE", key, "STATUS", "MERGE_FAILED", "ERROR", err)
	if opts.Report != nil {
		opts.Report.Add(tools.Failure{File: dir, Tool: "merge", Kind: tools.IOFailure, Detail: err.Error()})
	}
}

func logLine(opts Options, format string, args ...any) {
	if err := opts.Script.Logf(format, args...); err != nil {
		logger(opts).Warn("NANOFLOW", "PROGRAM", "merge", "STATUS", "LOG_WRITE_FAILED", "ERROR", err)
	}
}

func logger(opts Options) *slog.Logger {
	if opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}
