// Package alignment runs the aligners and summarizes their output.
package alignment

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/relocate"
	"github.com/gmaffy/nanoflow/tools"
)

const (
	scratchDirName = ".temp"
	samDirName     = "SAM_Files"
	logsDirName    = "logs"
)

type Options struct {
	Input      string
	Save       string
	Reference  string
	Bin        string
	MatchRate  float64
	Extensions []string

	// Now stamps relocated log files.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Result holds the per-key simple statistics of a guppy run.
type Result struct {
	Aligned int
	Stats   map[string]Stats
}

// collect returns the read files of opts.Input with their keys. Files
// without a barcode are logged and left out.
func collect(s *tools.Session, opts Options) ([]string, []string, error) {
	paths, err := files.Sorted(opts.Input, opts.Extensions)
	if err != nil {
		return nil, nil, err
	}
	reg := barcode.NewRegistry()
	var keep, keys []string
	for _, p := range paths {
		k, err := reg.ResolveUnder(opts.Input, p)
		if err != nil {
			s.Logf("Skipping %s: %v", p, err)
			continue
		}
		keep = append(keep, p)
		keys = append(keys, k.String())
	}
	return keep, keys, nil
}

// Guppy aligns each read file with guppy_aligner through a scratch
// directory, relocates the summary and log of every run, then writes the
// simple statistics of all summaries.
func Guppy(ctx context.Context, s *tools.Session, opts Options) (Result, error) {
	if _, err := InspectReference(opts.Reference); err != nil {
		return Result{}, err
	}
	paths, keys, err := collect(s, opts)
	if err != nil {
		return Result{}, err
	}

	scratch := filepath.Join(opts.Save, scratchDirName)
	samDir := filepath.Join(opts.Save, samDirName)
	defer relocate.RemoveScratch(scratch)

	tick := s.Tick(len(paths), "guppy_aligner")
	var res Result
	for i, path := range paths {
		tick()
		key := keys[i]
		if err := relocate.ResetScratch(scratch); err != nil {
			return res, err
		}
		if err := relocate.CopyFile(path, filepath.Join(scratch, filepath.Base(path))); err != nil {
			ioFailure(s, opts.Bin, path, fmt.Errorf("staging: %w", err))
			continue
		}

		stale := func(name string) bool {
			return relocate.Contains("alignment_summary")(name) || relocate.Contains("read_processor")(name)
		}
		if err := relocate.Discard(samDir, stale); err != nil {
			return res, err
		}

		s.Logf("Aligning %s as %s", path, key)
		cmd := tools.GuppyAligner{Bin: opts.Bin, Input: scratch, Save: samDir, Reference: opts.Reference}
		inv := s.Invoker.Invoke(ctx, cmd, path, samDir)
		if !s.Report.Record(inv) {
			if inv.Outcome == tools.Cancelled {
				return res, ctx.Err()
			}
			continue
		}

		_, err := relocate.Relocate(samDir, []relocate.Rule{
			{
				Match: relocate.Contains("alignment_summary"),
				Dest:  relocate.To(filepath.Join(opts.Save, SummaryDirName, summaryPrefix+key+".csv")),
			},
			{
				Match: relocate.Contains("read_processor"),
				Dest:  relocate.To(filepath.Join(opts.Save, logsDirName, relocate.LogFileName(opts.now(), key))),
			},
		})
		if err != nil {
			s.Report.Processed--
			ioFailure(s, opts.Bin, path, fmt.Errorf("relocating output: %w", err))
			continue
		}
		res.Aligned++
	}

	stats, err := SimpleStatistics(opts.Save)
	res.Stats = stats
	return res, err
}

// ioFailure reports a read file guppy_aligner never got to, or whose output
// could not be moved.
func ioFailure(s *tools.Session, bin, path string, err error) {
	s.Logf("Could not align %s: %v", path, err)
	s.Report.Processed++
	s.Report.Add(tools.Failure{File: path, Tool: tools.GuppyAligner{Bin: bin}.Tool(), Kind: tools.IOFailure, Detail: err.Error()})
}
