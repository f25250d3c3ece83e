// Package qc runs nanoQC or fastqc over read files.
package qc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/relocate"
	"github.com/gmaffy/nanoflow/tools"
)

type Options struct {
	Input string
	Save  string
	Bin   string
}

func named(want string) func(string) bool {
	return func(name string) bool { return strings.EqualFold(name, want) }
}

func isNanoQC(bin string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(bin)), "nanoqc")
}

// Run invokes the QC tool once per file in opts.Input, leaving out anything
// under opts.Save. nanoQC always writes
// nanoQC.html and NanoQC.log, so after every run they are renamed to
// nanoQC_<key>.html and logs/<key>.log.
func Run(ctx context.Context, s *tools.Session, opts Options) (int, error) {
	paths, err := files.All(opts.Input)
	if err != nil {
		return 0, err
	}
	nano := opts.Bin == "" || isNanoQC(opts.Bin)

	reg := barcode.NewRegistry()
	tick := s.Tick(len(paths), "quality control")
	done := 0
	saveDir, _ := filepath.Abs(opts.Save)
	for _, path := range paths {
		tick()
		if abs, _ := filepath.Abs(path); strings.HasPrefix(abs, saveDir+string(filepath.Separator)) {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(path), files.FormatExt(path))
		if k, err := reg.ResolveUnder(opts.Input, path); err == nil {
			key = k.String()
		}

		cmd := tools.QCTool{Bin: opts.Bin, Output: opts.Save, Input: path}
		inv := s.Invoker.Invoke(ctx, cmd, path, opts.Save)
		if !s.Report.Record(inv) {
			if inv.Outcome == tools.Cancelled {
				return done, ctx.Err()
			}
			continue
		}
		done++
		if !nano {
			continue
		}

		_, err := relocate.Relocate(opts.Save, []relocate.Rule{
			{Match: named("nanoQC.html"), Dest: relocate.To(filepath.Join(opts.Save, "nanoQC_"+key+".html"))},
			{Match: named("NanoQC.log"), Dest: relocate.To(filepath.Join(opts.Save, "logs", key+".log"))},
		})
		if err != nil {
			return done, fmt.Errorf("renaming QC output of %s: %w", path, err)
		}
	}
	return done, nil
}
