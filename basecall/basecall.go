// Package basecall wraps guppy_basecaller and guppy_barcoder. Both run once
// over a whole directory tree.
package basecall

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gmaffy/nanoflow/relocate"
	"github.com/gmaffy/nanoflow/tools"
	"github.com/gmaffy/nanoflow/utils"
)

// MoveLogs moves every *.log the tool left in save into save/logs.
func MoveLogs(save string) ([]relocate.Moved, error) {
	return relocate.Relocate(save, []relocate.Rule{
		{Match: relocate.HasSuffix(".log"), Dest: relocate.Into(filepath.Join(save, "logs"))},
	})
}

func run(ctx context.Context, s *tools.Session, cmd tools.Command, input, save string) (tools.Invocation, error) {
	if !utils.IsDir(input) {
		return tools.Invocation{}, fmt.Errorf("%s: input %s is not a directory", cmd.Tool(), input)
	}
	inv := s.Invoker.Invoke(ctx, cmd, input, save)
	if !s.Report.Record(inv) {
		if inv.Outcome == tools.Cancelled {
			return inv, ctx.Err()
		}
		return inv, nil
	}
	if _, err := MoveLogs(save); err != nil {
		return inv, fmt.Errorf("moving %s logs: %w", cmd.Tool(), err)
	}
	return inv, nil
}

// Basecall converts raw signal under input into reads under save.
func Basecall(ctx context.Context, s *tools.Session, bin, input, save string, cfg utils.BasecallConfig) (tools.Invocation, error) {
	cmd := tools.Basecaller{
		Bin:                 bin,
		Input:               input,
		Save:                save,
		Config:              cfg.Config,
		NumCallers:          cfg.NumCallers,
		CPUThreadsPerCaller: cfg.CPUThreadsPerCaller,
	}
	return run(ctx, s, cmd, input, save)
}

// Demultiplex sorts reads under input into save/barcodeNN and
// save/unclassified.
func Demultiplex(ctx context.Context, s *tools.Session, bin, input, save string, cfg utils.BarcodeConfig) (tools.Invocation, error) {
	cmd := tools.Barcoder{
		Bin:             bin,
		Input:           input,
		Save:            save,
		Config:          cfg.Config,
		WorkerThreads:   cfg.WorkerThreads,
		Kits:            cfg.Kits,
		RequireBothEnds: cfg.RequireBothEnds,
	}
	return run(ctx, s, cmd, input, save)
}
