package alignment

import (
	"context"
	"path/filepath"

	"github.com/gmaffy/nanoflow/tools"
)

// Minimap2 writes one minimap_<key>.csv per read file into opts.Save.
func Minimap2(ctx context.Context, s *tools.Session, opts Options) (int, error) {
	if _, err := InspectReference(opts.Reference); err != nil {
		return 0, err
	}
	paths, keys, err := collect(s, opts)
	if err != nil {
		return 0, err
	}

	tick := s.Tick(len(paths), "minimap2")
	aligned := 0
	for i, path := range paths {
		tick()
		out := filepath.Join(opts.Save, "minimap_"+keys[i]+".csv")
		cmd := tools.Minimap2{Bin: opts.Bin, Reference: opts.Reference, Input: path, Output: out}
		inv := s.Invoker.Invoke(ctx, cmd, path, opts.Save)
		if s.Report.Record(inv) {
			aligned++
		} else if inv.Outcome == tools.Cancelled {
			return aligned, ctx.Err()
		}
	}
	return aligned, nil
}

// VSearch writes one vsearch_<key>.txt per read file into opts.Save.
func VSearch(ctx context.Context, s *tools.Session, opts Options) (int, error) {
	rate, err := tools.NormalizeMatchRate(opts.MatchRate)
	if err != nil {
		return 0, err
	}
	paths, keys, err := collect(s, opts)
	if err != nil {
		return 0, err
	}

	tick := s.Tick(len(paths), "vsearch")
	aligned := 0
	for i, path := range paths {
		tick()
		out := filepath.Join(opts.Save, "vsearch_"+keys[i]+".txt")
		cmd := tools.VSearch{Bin: opts.Bin, MatchRate: rate, Input: path, Output: out}
		inv := s.Invoker.Invoke(ctx, cmd, path, opts.Save)
		if s.Report.Record(inv) {
			aligned++
		} else if inv.Outcome == tools.Cancelled {
			return aligned, ctx.Err()
		}
	}
	return aligned, nil
}
