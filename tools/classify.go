package tools

import (
	"path/filepath"
	"strings"
)

// Outcome is how an invocation ended.
type Outcome int

const (
	NotStarted Outcome = iota
	Succeeded
	Failed
	TimedOut
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	default:
		return "not started"
	}
}

// FailureKind classifies why an invocation did not succeed.
type FailureKind int

const (
	NoFailure FailureKind = iota
	NonZeroExit
	MalformedInput
	UnsupportedInput
	DeadlineExceeded
	Interrupted
	StartFailure
	// IOFailure is a read or write error on a file the stage handles itself.
	IOFailure
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case NonZeroExit:
		return "non-zero exit"
	case MalformedInput:
		return "malformed input"
	case UnsupportedInput:
		return "unsupported input"
	case DeadlineExceeded:
		return "timeout"
	case Interrupted:
		return "interrupted"
	case IOFailure:
		return "i/o error"
	default:
		return "could not start"
	}
}

// Signature maps a stderr substring of one tool to a failure kind. Tool and
// Pattern are compared lowercased; an empty Tool matches every tool.
type Signature struct {
	Tool    string
	Pattern string
	Kind    FailureKind
}

var DefaultSignatures = []Signature{
	{Tool: "cutadapt", Pattern: "input file format", Kind: MalformedInput},
	{Tool: "nanoqc", Pattern: "input error", Kind: UnsupportedInput},
}

// Classify matches stderr of tool against sigs. The second result is false
// when no signature matched.
func Classify(sigs []Signature, tool, stderr string) (FailureKind, bool) {
	name := strings.ToLower(filepath.Base(tool))
	text := strings.ToLower(stderr)
	for _, s := range sigs {
		if s.Tool != "" && !strings.Contains(name, strings.ToLower(s.Tool)) {
			continue
		}
		if strings.Contains(text, strings.ToLower(s.Pattern)) {
			return s.Kind, true
		}
	}
	return NoFailure, false
}
