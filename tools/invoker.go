package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gmaffy/nanoflow/utils"
	"github.com/google/uuid"
)

// Invocation records one child process from argument building to exit.
type Invocation struct {
	ID        string
	Tool      string
	Argv      []string
	Input     string
	OutputDir string
	Output

	Outcome  Outcome
	Failure  FailureKind
	Err      error
	Started  time.Time
	Finished time.Time
}

func (inv Invocation) Ok() bool { return inv.Outcome == Succeeded }

// CommandLine is the argv joined the way a shell would read it back.
func (inv Invocation) CommandLine() string {
	return quoteArgv(inv.Argv)
}

// Invoker executes commands one at a time.
type Invoker struct {
	Runner     Runner
	Script     *utils.ScriptLog
	Logger     *slog.Logger
	Timeout    time.Duration
	Signatures []Signature
}

// Invoke builds the argv of cmd, ensures outDir exists, logs the command line
// and runs it. The result never panics or exits; inspect Outcome.
func (i *Invoker) Invoke(ctx context.Context, cmd Command, input, outDir string) Invocation {
	inv := Invocation{
		ID:        uuid.NewString(),
		Tool:      cmd.Tool(),
		Input:     input,
		OutputDir: outDir,
	}
	logger := i.logger()

	argv, err := cmd.Argv()
	if err != nil {
		inv.Err = err
		inv.Failure = StartFailure
		return inv
	}
	inv.Argv = argv

	if outDir != "" {
		if _, err := utils.EnsureDir(outDir); err != nil {
			inv.Err = fmt.Errorf("creating output directory: %w", err)
			inv.Failure = StartFailure
			return inv
		}
	}

	if err := i.Script.Log(inv.CommandLine()); err != nil {
		logger.Warn("NANOFLOW", "PROGRAM", inv.Tool, "SAMPLE", input, "STATUS", "LOG_WRITE_FAILED", "ERROR", err)
	}
	logger.Debug("NANOFLOW", "PROGRAM", inv.Tool, "SAMPLE", input, "STATUS", "STARTED", "CMD", inv.CommandLine(), "ID", inv.ID)

	runCtx := ctx
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	runner := i.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	inv.Started = time.Now()
	out, err := runner.Run(runCtx, argv)
	inv.Finished = time.Now()
	inv.Output = out

	sigs := i.Signatures
	if sigs == nil {
		sigs = DefaultSignatures
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		inv.Outcome, inv.Failure, inv.Err = TimedOut, DeadlineExceeded, err
	case err != nil && ctx.Err() != nil:
		inv.Outcome, inv.Failure, inv.Err = Cancelled, Interrupted, ctx.Err()
	case err != nil:
		inv.Outcome, inv.Failure, inv.Err = NotStarted, StartFailure, err
	default:
		if kind, ok := Classify(sigs, inv.Tool, out.Stderr); ok {
			inv.Outcome, inv.Failure = Failed, kind
		} else if out.ExitCode != 0 {
			inv.Outcome, inv.Failure = Failed, NonZeroExit
		} else {
			inv.Outcome = Succeeded
		}
	}

	status := "COMPLETED"
	if !inv.Ok() {
		status = "FAILED - " + inv.Failure.String()
	}
	logger.Debug("NANOFLOW", "PROGRAM", inv.Tool, "SAMPLE", input, "STATUS", status, "ID", inv.ID, "EXIT", out.ExitCode, "ELAPSED", inv.Finished.Sub(inv.Started))
	return inv
}

func (i *Invoker) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.Default()
	}
	return i.Logger
}

func quoteArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n'\"\\$") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
