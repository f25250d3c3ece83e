package tools

import (
	"io"
	"log/slog"
	"os"

	"github.com/gmaffy/nanoflow/utils"
)

// Session is what a stage needs to run tools: the invoker, the stage report,
// the stage script log and the run logger.
type Session struct {
	Invoker *Invoker
	Report  *Report
	Script  *utils.ScriptLog
	Logger  *slog.Logger

	// Progress receives the progress bar, nil disables it.
	Progress io.Writer
}

// NewSession wires a session for one stage. logName is the script log base
// name under the configured log directory, e.g. "trim_reads".
func NewSession(cfg utils.RunConfig, stage, logName string, runner Runner, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	script := utils.NewScriptLog(cfg.StageLogPath(logName))
	return &Session{
		Invoker: &Invoker{
			Runner:  runner,
			Script:  script,
			Logger:  logger,
			Timeout: cfg.Timeout,
		},
		Report:   NewReport(stage),
		Script:   script,
		Logger:   logger,
		Progress: os.Stderr,
	}
}

// Logf writes a script log line and mirrors it to the run logger on failure.
func (s *Session) Logf(format string, args ...any) {
	if err := s.Script.Logf(format, args...); err != nil {
		s.logger().Warn("NANOFLOW", "PROGRAM", s.stage(), "STATUS", "LOG_WRITE_FAILED", "ERROR", err)
	}
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Session) stage() string {
	if s.Report == nil {
		return ""
	}
	return s.Report.Stage
}

// Tick advances a progress bar over n files. The returned func is called once
// per file.
func (s *Session) Tick(n int, description string) func() {
	if s.Progress == nil || n == 0 {
		return func() {}
	}
	bar := utils.NewProgress(n, description, s.Progress)
	return func() { _ = bar.Add(1) }
}
