// Package trimming orients reads and removes the 16S primers with cutadapt.
package trimming

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gmaffy/nanoflow/barcode"
	"github.com/gmaffy/nanoflow/files"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

type Options struct {
	Input   string
	Save    string
	Bin     string
	Primer3 string
	Primer5 string
	// ErrorRate is passed to cutadapt as given; 0 allows no mismatches.
	ErrorRate float64
	Jobs      int
}

func (o Options) withDefaults() Options {
	if o.Primer3 == "" {
		o.Primer3 = utils.DefaultPrimer3
	}
	if o.Primer5 == "" {
		o.Primer5 = utils.DefaultPrimer5
	}
	return o
}

// OutputName is trimmed_<key><ext>, or trimmed_<name> when path has no
// barcode.
func OutputName(reg *barcode.Registry, root, path string) string {
	base := filepath.Base(path)
	k, err := reg.ResolveUnder(root, path)
	if err != nil {
		return "trimmed_" + base
	}
	return "trimmed_" + k.String() + files.FormatExt(base)
}

// Trim runs cutadapt on every file under opts.Input. Files cutadapt cannot
// read, and outputs that cannot be created, end up in the session report; the
// stage itself does not fail for them.
func Trim(ctx context.Context, s *tools.Session, opts Options) (int, error) {
	opts = opts.withDefaults()
	paths, err := files.All(opts.Input)
	if err != nil {
		return 0, err
	}
	if _, err := utils.EnsureDir(opts.Save); err != nil {
		return 0, err
	}

	reg := barcode.NewRegistry()
	tick := s.Tick(len(paths), "cutadapt")
	trimmed := 0
	saveDir, _ := filepath.Abs(opts.Save)
	for _, path := range paths {
		tick()
		if abs, _ := filepath.Abs(path); strings.HasPrefix(abs, saveDir+string(filepath.Separator)) {
			continue
		}
		out := filepath.Join(opts.Save, OutputName(reg, opts.Input, path))
		cmd := tools.Cutadapt{
			Bin:       opts.Bin,
			Primer3:   opts.Primer3,
			Primer5:   opts.Primer5,
			ErrorRate: opts.ErrorRate,
			Jobs:      opts.Jobs,
			Input:     path,
			Output:    out,
		}
		// cutadapt expects the output file to be writable up front
		f, err := os.Create(out)
		if err != nil {
			s.Logf("Could not create %s: %v", out, err)
			s.Report.Processed++
			s.Report.Add(tools.Failure{File: path, Tool: cmd.Tool(), Kind: tools.IOFailure, Detail: err.Error()})
			continue
		}
		f.Close()

		inv := s.Invoker.Invoke(ctx, cmd, path, opts.Save)
		if s.Report.Record(inv) {
			trimmed++
			continue
		}
		if inv.Outcome == tools.Cancelled {
			return trimmed, ctx.Err()
		}
		if inv.Failure == tools.MalformedInput {
			_ = os.Remove(out)
		}
	}
	return trimmed, nil
}
