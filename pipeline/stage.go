// Package pipeline sequences the read-processing stages. Each stage is run
// explicitly; nothing triggers the next stage on its own.
package pipeline

import (
	"fmt"
	"strings"
)

// Stage is the state a run reaches once the stage of the same name finished.
type Stage int

const (
	Raw Stage = iota
	Basecalled
	Barcoded
	Counted
	Merged
	Trimmed
	Aligned
	QCd
	Visualized
)

var stageNames = [...]string{
	Raw:        "RAW",
	Basecalled: "BASECALLED",
	Barcoded:   "BARCODED",
	Counted:    "COUNTED",
	Merged:     "MERGED",
	Trimmed:    "TRIMMED",
	Aligned:    "ALIGNED",
	QCd:        "QC",
	Visualized: "VISUALIZED",
}

// stepNames are the command names of the transitions into each state.
var stepNames = [...]string{
	Basecalled: "basecall",
	Barcoded:   "barcode",
	Counted:    "count",
	Merged:     "merge",
	Trimmed:    "trim",
	Aligned:    "align",
	QCd:        "qc",
	Visualized: "visualize",
}

func (s Stage) String() string {
	if s < Raw || s > Visualized {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Step is the name of the stage that produces s, e.g. "trim" for Trimmed.
// Raw has no step.
func (s Stage) Step() string {
	if s <= Raw || s > Visualized {
		return ""
	}
	return stepNames[s]
}

// ProducesReads reports whether the stage writes reads the next stage
// consumes. Other stages hand their own input on.
func (s Stage) ProducesReads() bool {
	switch s {
	case Basecalled, Barcoded, Merged, Trimmed:
		return true
	}
	return false
}

// Stages lists every transition in run order.
func Stages() []Stage {
	return []Stage{Basecalled, Barcoded, Counted, Merged, Trimmed, Aligned, QCd, Visualized}
}

// ParseStage accepts a step name ("trim") or a state name ("TRIMMED").
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages() {
		if strings.EqualFold(name, s.Step()) || strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return Raw, fmt.Errorf("unknown stage %q", name)
}
