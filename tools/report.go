package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/fatih/color"
)

// Failure is one file a stage could not process.
type Failure struct {
	File   string
	Tool   string
	Kind   FailureKind
	Detail string
}

// Report collects the unprocessable files of a stage.
type Report struct {
	Stage     string
	Processed int
	Failures  []Failure
}

func NewReport(stage string) *Report {
	return &Report{Stage: stage}
}

func (r *Report) Add(f Failure) {
	r.Failures = append(r.Failures, f)
}

// Record counts inv and adds a failure when it did not succeed. It returns
// inv.Ok().
func (r *Report) Record(inv Invocation) bool {
	r.Processed++
	if inv.Ok() {
		return true
	}
	detail := firstLine(inv.Stderr)
	if inv.Err != nil {
		detail = inv.Err.Error()
	} else if detail == "" {
		detail = fmt.Sprintf("exit status %d", inv.ExitCode)
	}
	r.Add(Failure{File: inv.Input, Tool: inv.Tool, Kind: inv.Failure, Detail: detail})
	return false
}

// Files lists the failed inputs in the order they were recorded.
func (r *Report) Files() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.File
	}
	return out
}

func (r *Report) Empty() bool { return len(r.Failures) == 0 }

// Render prints the end-of-stage summary.
func (r *Report) Render(w io.Writer) {
	if r.Empty() {
		fmt.Fprintf(w, "%s: %d file(s) processed, none unprocessable\n", r.Stage, r.Processed)
		return
	}

	fmt.Fprintf(w, "%s: %d of %d file(s) could not be processed\n", r.Stage, len(r.Failures), r.Processed)
	t := table.New(w)
	header := color.New(color.FgCyan, color.Bold)
	t.SetHeaders(header.Sprint("File"), header.Sprint("Tool"), header.Sprint("Reason"), header.Sprint("Detail"))
	t.SetHeaderStyle(table.StyleBold)
	t.SetLineStyle(table.StyleBlue)
	t.SetDividers(table.UnicodeRoundedDividers)

	red := color.New(color.FgRed)
	for _, f := range r.Failures {
		t.AddRow(f.File, f.Tool, red.Sprint(f.Kind.String()), f.Detail)
	}
	t.Render()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
