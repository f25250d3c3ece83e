// Package counting counts sequence records per barcode.
package counting

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/utils"
	"github.com/samber/lo"
)

const defaultBaseName = "barcode_counts"

// ConfigError lists every problem found before counting started.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid read count configuration: " + strings.Join(e.Problems, "; ")
}

type Options struct {
	Input      string
	Output     string
	FileName   string
	Extensions []string

	Script   *utils.ScriptLog
	Logger   *slog.Logger
	Progress io.Writer
}

// Validate checks the directories and the file-name override.
func Validate(opts Options) error {
	var problems []string
	switch {
	case opts.Input == "":
		problems = append(problems, "input directory not set")
	case !utils.IsDir(opts.Input):
		problems = append(problems, fmt.Sprintf("input %s is not a directory", opts.Input))
	}
	switch {
	case opts.Output == "":
		problems = append(problems, "output directory not set")
	case !utils.IsDir(opts.Output):
		problems = append(problems, fmt.Sprintf("output %s is not a directory", opts.Output))
	}
	if strings.ContainsAny(opts.FileName, `/\`) {
		problems = append(problems, fmt.Sprintf("file name %q must not contain a path separator", opts.FileName))
	}
	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

// Paths returns the table and snapshot file paths for opts.
func Paths(opts Options) (csvPath, snapshotPath string) {
	base := defaultBaseName
	if opts.FileName != "" {
		base = strings.TrimSuffix(opts.FileName, filepath.Ext(opts.FileName))
	}
	return filepath.Join(opts.Output, base+".csv"), filepath.Join(opts.Output, base+".yaml")
}

// Run validates, counts and writes both outputs. Nothing is written unless
// validation passes and at least one file was recognised.
func Run(opts Options) (*Summary, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}
	recs, err := files.Records(opts.Input, opts.Extensions)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, &ConfigError{Problems: []string{fmt.Sprintf("no sequence files found under %s", opts.Input)}}
	}

	summary, err := Count(recs, opts)
	if err != nil {
		return nil, err
	}

	csvPath, snapshotPath := Paths(opts)
	if err := summary.WriteCSV(csvPath); err != nil {
		return summary, err
	}
	if err := summary.WriteSnapshot(snapshotPath); err != nil {
		return summary, err
	}
	for _, key := range summary.Keys() {
		logLine(opts, "Completed count on: %s", summary.Files[key])
	}
	return summary, nil
}

// Count tallies records of recs per key. Files without a barcode, of an
// unknown format or that cannot be read are skipped and logged.
func Count(recs []files.Record, opts Options) (*Summary, error) {
	summary := NewSummary()
	reg := barcode.NewRegistry()

	var bar func()
	if opts.Progress != nil {
		p := utils.NewProgress(len(recs), "counting reads", opts.Progress)
		bar = func() { _ = p.Add(1) }
	} else {
		bar = func() {}
	}

	for _, rec := range recs {
		bar()
		key, err := reg.ResolveUnder(opts.Input, rec.Path)
		var nb *barcode.NoBarcodeFoundError
		if errors.As(err, &nb) {
			summary.Skipped = append(summary.Skipped, rec.Path)
			logLine(opts, "Unknown Barcode: %s", rec.Path)
			continue
		}
		if rec.Kind == files.Other {
			summary.Skipped = append(summary.Skipped, rec.Path)
			logLine(opts, "Unknown format: %s", rec.Path)
			continue
		}

		n, err := CountFile(rec)
		if err != nil {
			summary.Skipped = append(summary.Skipped, rec.Path)
			logLine(opts, "Unreadable file: %s", rec.Path)
			logger(opts).Warn("NANOFLOW", "PROGRAM", "count", "SAMPLE", rec.Path, "STATUS", "UNREADABLE", "ERROR", err)
			continue
		}
		summary.Add(key.String(), n, rec.Path)
		logger(opts).Debug("NANOFLOW", "PROGRAM", "count", "SAMPLE", rec.Path, "STATUS", "COUNTED", "READS", n, "BARCODE", key.String())
	}
	return summary, nil
}

// CountFile counts lines of rec that begin with its format delimiter.
func CountFile(rec files.Record) (int, error) {
	rc, err := files.Open(rec.Path)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return CountRecords(rc, rec.Kind.Delimiter())
}

// CountRecords counts lines of r starting with delim. Lines may be any
// length.
func CountRecords(r io.Reader, delim byte) (int, error) {
	if delim == 0 {
		return 0, nil
	}
	buf := make([]byte, 64*1024)
	count := 0
	lineStart := true
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if lineStart && b == delim {
				count++
			}
			lineStart = b == '\n'
		}
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
	}
}

// Summary maps barcode keys to read totals and the last file counted.
type Summary struct {
	Counts  map[string]int
	Files   map[string]string
	Skipped []string
}

func NewSummary() *Summary {
	return &Summary{Counts: map[string]int{}, Files: map[string]string{}}
}

func (s *Summary) Add(key string, n int, file string) {
	s.Counts[key] += n
	s.Files[key] = file
}

// Keys in lexicographic order.
func (s *Summary) Keys() []string {
	keys := lo.Keys(s.Counts)
	sort.Strings(keys)
	return keys
}

func (s *Summary) Total() int {
	return lo.Sum(lo.Values(s.Counts))
}

func logLine(opts Options, format string, args ...any) {
	if err := opts.Script.Logf(format, args...); err != nil {
		logger(opts).Warn("NANOFLOW", "PROGRAM", "count", "STATUS", "LOG_WRITE_FAILED", "ERROR", err)
	}
}

func logger(opts Options) *slog.Logger {
	if opts.Logger == nil {
		return slog.Default()
	}
	return opts.Logger
}
