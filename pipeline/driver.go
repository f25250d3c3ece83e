package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/gmaffy/nanoflow/alignment"
	"github.com/gmaffy/nanoflow/basecall"
	"github.com/gmaffy/nanoflow/counting"
	"github.com/gmaffy/nanoflow/merging"
	"github.com/gmaffy/nanoflow/qc"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/trimming"
	"github.com/gmaffy/nanoflow/utils"
	"github.com/gmaffy/nanoflow/visualize"
	"github.com/samber/lo"
)

// Result describes one finished (or skipped) stage.
type Result struct {
	Stage  Stage
	Input  string
	Output string
	// Reads is the directory the next stage reads from.
	Reads   string
	Report  *tools.Report
	Skipped bool
}

// Driver runs stages against one RunConfig.
type Driver struct {
	Config utils.RunConfig
	Runner tools.Runner
	Logger *slog.Logger

	// Out receives the end-of-stage reports, Progress the progress bars.
	// Either may be nil.
	Out      io.Writer
	Progress io.Writer

	// Resume skips stages the run log records as completed for the same
	// input directory.
	Resume bool
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Dirs resolves the input and output directories of st. input is the
// directory handed on by the previous stage; it falls back to the configured
// input root.
func (d *Driver) Dirs(st Stage, input string) (string, string) {
	cfg := d.Config
	override := cfg.Override(st.Step())

	in := lo.Ternary(override.Input != "", override.Input, input)
	if in == "" {
		in = cfg.InputRoot
	}
	if override.Output != "" {
		return in, override.Output
	}

	root := cfg.OutputRoot
	switch st {
	case Basecalled:
		return in, filepath.Join(root, "basecalled")
	case Barcoded:
		return in, filepath.Join(root, "barcoded")
	case Merged:
		return in, filepath.Join(root, merging.DirName)
	case Trimmed:
		return in, filepath.Join(root, "trimmed")
	case QCd:
		return in, filepath.Join(root, "QualityControl")
	case Visualized:
		return in, filepath.Join(root, "Visualizations")
	}
	return in, root
}

// LogName is the script log base name of st.
func (d *Driver) LogName(st Stage) string {
	switch st {
	case Basecalled:
		return "basecall"
	case Barcoded:
		return "barcode"
	case Counted:
		return "count_reads"
	case Merged:
		return "merge_files"
	case Trimmed:
		return "trim_reads"
	case Aligned:
		switch d.Config.Align.Aligner {
		case "minimap2":
			return "minimap_aligner"
		case "vsearch":
			return "vsearch_aligner"
		}
		return "guppy_aligner"
	case QCd:
		return "nanoqc"
	case Visualized:
		return "visualize"
	}
	return st.Step()
}

// CountsFile is the counts table the count stage writes and the visualize
// stage reads.
func (d *Driver) CountsFile() string {
	if d.Config.Visualize.CountsFile != "" {
		return d.Config.Visualize.CountsFile
	}
	_, out := d.Dirs(Counted, "")
	csvPath, _ := counting.Paths(counting.Options{Output: out, FileName: d.Config.Count.FileName})
	return csvPath
}

// RunStage runs one stage reading from input. Per-file failures end up in the
// report; only configuration problems and cancellation are returned as
// errors.
func (d *Driver) RunStage(ctx context.Context, st Stage, input string) (Result, error) {
	if st.Step() == "" {
		return Result{}, fmt.Errorf("stage %s cannot be run", st)
	}
	in, out := d.Dirs(st, input)
	res := Result{Stage: st, Input: in, Output: out, Reads: in}
	if st.ProducesReads() {
		res.Reads = out
	}

	logger := d.logger()
	program := st.Step()
	if d.Resume && utils.StageHasCompleted(utils.ParseLogFile(d.Config.RunLogPath()), program, in) {
		logger.Info("NANOFLOW", "PROGRAM", program, "SAMPLE", in, "STATUS", "SKIPPED")
		res.Skipped = true
		return res, nil
	}

	s := tools.NewSession(d.Config, program, d.LogName(st), d.Runner, logger)
	s.Progress = d.Progress
	res.Report = s.Report

	logger.Info("NANOFLOW", "PROGRAM", program, "SAMPLE", in, "STATUS", "STARTED")
	if err := d.run(ctx, s, st, in, out); err != nil {
		logger.Error("NANOFLOW", "PROGRAM", program, "SAMPLE", in, "STATUS", "FAILED", "ERROR", err)
		return res, fmt.Errorf("%s: %w", program, err)
	}
	logger.Info("NANOFLOW", "PROGRAM", program, "SAMPLE", in, "STATUS", "COMPLETED", "UNPROCESSABLE", len(s.Report.Failures))

	if d.Out != nil {
		s.Report.Render(d.Out)
	}
	return res, nil
}

func (d *Driver) run(ctx context.Context, s *tools.Session, st Stage, in, out string) error {
	cfg := d.Config
	switch st {
	case Basecalled:
		_, err := basecall.Basecall(ctx, s, cfg.Tools.Basecaller, in, out, cfg.Basecall)
		return err

	case Barcoded:
		_, err := basecall.Demultiplex(ctx, s, cfg.Tools.Barcoder, in, out, cfg.Barcode)
		return err

	case Counted:
		summary, err := counting.Run(counting.Options{
			Input:      in,
			Output:     out,
			FileName:   cfg.Count.FileName,
			Extensions: cfg.Count.Extensions,
			Script:     s.Script,
			Logger:     s.Logger,
			Progress:   s.Progress,
		})
		if err != nil {
			return err
		}
		s.Report.Processed = len(summary.Files)
		return nil

	case Merged:
		merged, err := merging.Merge(merging.Options{
			Parent:     in,
			Dest:       out,
			Extensions: cfg.Count.Extensions,
			Script:     s.Script,
			Logger:     s.Logger,
			Report:     s.Report,
		})
		s.Report.Processed = len(merged) + len(s.Report.Failures)
		return err

	case Trimmed:
		_, err := trimming.Trim(ctx, s, trimming.Options{
			Input:     in,
			Save:      out,
			Bin:       cfg.Tools.Trimmer,
			Primer3:   cfg.Trim.Primer3,
			Primer5:   cfg.Trim.Primer5,
			ErrorRate: cfg.Trim.ErrorRate,
			Jobs:      cfg.Trim.Jobs,
		})
		return err

	case Aligned:
		return d.align(ctx, s, in, out)

	case QCd:
		bin, _ := lo.Coalesce(cfg.QC.Tool, cfg.Tools.QC)
		_, err := qc.Run(ctx, s, qc.Options{Input: in, Save: out, Bin: bin})
		return err

	case Visualized:
		return visualize.Run(ctx, s, visualize.Options{
			Input:      in,
			Save:       out,
			CountsFile: d.CountsFile(),
			Bin:        cfg.Tools.Plotter,
		})
	}
	return fmt.Errorf("stage %s has no body", st)
}

func (d *Driver) align(ctx context.Context, s *tools.Session, in, out string) error {
	cfg := d.Config
	opts := alignment.Options{
		Input:     in,
		Save:      out,
		Reference: cfg.Align.Reference,
		MatchRate: cfg.Align.MatchRate,
	}
	switch cfg.Align.Aligner {
	case "", "guppy":
		opts.Bin = cfg.Tools.Aligner
		_, err := alignment.Guppy(ctx, s, opts)
		return err
	case "minimap2":
		opts.Bin = cfg.Tools.Minimap2
		_, err := alignment.Minimap2(ctx, s, opts)
		return err
	case "vsearch":
		opts.Bin = cfg.Tools.VSearch
		_, err := alignment.VSearch(ctx, s, opts)
		return err
	}
	return fmt.Errorf("unknown aligner %q (want guppy, minimap2 or vsearch)", cfg.Align.Aligner)
}

// Run executes the stages from through to in order, feeding each
// stage the reads directory of the one before. It stops at the first stage
// error.
func (d *Driver) Run(ctx context.Context, from, to Stage) ([]Result, error) {
	if from > to {
		return nil, fmt.Errorf("cannot run from %s back to %s", from, to)
	}
	var results []Result
	reads := d.Config.InputRoot
	for _, st := range Stages() {
		if st < from || st > to {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := d.RunStage(ctx, st, reads)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		reads = res.Reads
	}
	return results, nil
}

// Tools lists the executables the stages from through to invoke.
func (d *Driver) Tools(from, to Stage) []string {
	t := d.Config.Tools
	var names []string
	for _, st := range Stages() {
		if st < from || st > to {
			continue
		}
		switch st {
		case Basecalled:
			names = append(names, t.Basecaller)
		case Barcoded:
			names = append(names, t.Barcoder)
		case Trimmed:
			names = append(names, t.Trimmer)
		case Aligned:
			switch d.Config.Align.Aligner {
			case "minimap2":
				names = append(names, t.Minimap2)
			case "vsearch":
				names = append(names, t.VSearch)
			default:
				names = append(names, t.Aligner)
			}
		case QCd:
			bin, _ := lo.Coalesce(d.Config.QC.Tool, t.QC)
			names = append(names, bin)
		case Visualized:
			names = append(names, t.Plotter)
		}
	}
	return lo.Uniq(lo.Compact(names))
}
