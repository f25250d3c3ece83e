package tools

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrMissingRequired = errors.New("missing required argument")

// Command builds the exact argument vector of one external tool.
type Command interface {
	Tool() string
	Argv() ([]string, error)
}

func require(tool string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%s: %w %s", tool, ErrMissingRequired, pairs[i])
		}
	}
	return nil
}

func orDefault(bin, def string) string {
	if bin == "" {
		return def
	}
	return bin
}

// Basecaller is guppy_basecaller.
type Basecaller struct {
	Bin                 string
	Input               string
	Save                string
	Config              string
	NumCallers          int
	CPUThreadsPerCaller int
}

func (c Basecaller) Tool() string { return orDefault(c.Bin, "guppy_basecaller") }

func (c Basecaller) Argv() ([]string, error) {
	if err := require(c.Tool(), "input_path", c.Input, "save_path", c.Save, "config", c.Config); err != nil {
		return nil, err
	}
	return []string{c.Tool(),
		"--recursive",
		"--input_path", c.Input,
		"--save_path", c.Save,
		"--config", c.Config,
		"--num_callers", strconv.Itoa(c.NumCallers),
		"--cpu_threads_per_caller", strconv.Itoa(c.CPUThreadsPerCaller),
	}, nil
}

// Barcoder is guppy_barcoder.
type Barcoder struct {
	Bin             string
	Input           string
	Save            string
	Config          string
	WorkerThreads   int
	Kits            string
	RequireBothEnds bool
}

func (c Barcoder) Tool() string { return orDefault(c.Bin, "guppy_barcoder") }

func (c Barcoder) Argv() ([]string, error) {
	if err := require(c.Tool(), "input_path", c.Input, "save_path", c.Save, "config", c.Config, "barcode_kits", c.Kits); err != nil {
		return nil, err
	}
	argv := []string{c.Tool(),
		"--input_path", c.Input,
		"--save_path", c.Save,
		"--recursive",
		"--config", c.Config,
		"--worker_threads", strconv.Itoa(c.WorkerThreads),
		"--barcode_kits", c.Kits,
	}
	if c.RequireBothEnds {
		argv = append(argv, "--require_barcodes_both_ends")
	}
	return argv, nil
}

// GuppyAligner is guppy_aligner. Input is a scratch directory.
type GuppyAligner struct {
	Bin       string
	Input     string
	Save      string
	Reference string
}

func (c GuppyAligner) Tool() string { return orDefault(c.Bin, "guppy_aligner") }

func (c GuppyAligner) Argv() ([]string, error) {
	if err := require(c.Tool(), "input_path", c.Input, "save_path", c.Save, "align_ref", c.Reference); err != nil {
		return nil, err
	}
	return []string{c.Tool(),
		"--input_path", c.Input,
		"--save_path", c.Save,
		"--align_ref", c.Reference,
	}, nil
}

// Minimap2 maps nanopore reads with the map-ont preset.
type Minimap2 struct {
	Bin       string
	Reference string
	Input     string
	Output    string
}

func (c Minimap2) Tool() string { return orDefault(c.Bin, "minimap2") }

func (c Minimap2) Argv() ([]string, error) {
	if err := require(c.Tool(), "reference", c.Reference, "input", c.Input, "output", c.Output); err != nil {
		return nil, err
	}
	return []string{c.Tool(), "-ax", "map-ont", c.Reference, c.Input, "-o", c.Output}, nil
}

// Cutadapt trims the 3' and 5' primers on both strands.
type Cutadapt struct {
	Bin       string
	Primer3   string
	Primer5   string
	ErrorRate float64
	Jobs      int
	Input     string
	Output    string
}

func (c Cutadapt) Tool() string { return orDefault(c.Bin, "cutadapt") }

func (c Cutadapt) Argv() ([]string, error) {
	if err := require(c.Tool(), "-a", c.Primer3, "-g", c.Primer5, "input", c.Input, "-o", c.Output); err != nil {
		return nil, err
	}
	return []string{c.Tool(),
		"--revcomp", "--quiet",
		"-j", strconv.Itoa(c.Jobs),
		"-a", c.Primer3,
		"-g", c.Primer5,
		"-e", strconv.FormatFloat(c.ErrorRate, 'f', -1, 64),
		"-o", c.Output,
		c.Input,
	}, nil
}

// QCTool covers nanoQC and fastqc, which share the "-o dir file" shape.
type QCTool struct {
	Bin    string
	Output string
	Input  string
}

func (c QCTool) Tool() string { return orDefault(c.Bin, "nanoQC") }

func (c QCTool) Argv() ([]string, error) {
	if err := require(c.Tool(), "-o", c.Output, "input", c.Input); err != nil {
		return nil, err
	}
	return []string{c.Tool(), "-o", c.Output, c.Input}, nil
}

// NanoPlot renders per-file read plots.
type NanoPlot struct {
	Bin    string
	Input  string
	Output string
}

func (c NanoPlot) Tool() string { return orDefault(c.Bin, "NanoPlot") }

func (c NanoPlot) Argv() ([]string, error) {
	if err := require(c.Tool(), "--fastq", c.Input, "--outdir", c.Output); err != nil {
		return nil, err
	}
	return []string{c.Tool(), "--fastq", c.Input, "--outdir", c.Output}, nil
}

// VSearch runs an all-pairs global alignment at a fixed identity.
type VSearch struct {
	Bin       string
	MatchRate float64
	Input     string
	Output    string
}

func (c VSearch) Tool() string { return orDefault(c.Bin, "vsearch") }

func (c VSearch) Argv() ([]string, error) {
	if err := require(c.Tool(), "--allpairs_global", c.Input, "--alnout", c.Output); err != nil {
		return nil, err
	}
	return []string{c.Tool(),
		"--id", strconv.FormatFloat(c.MatchRate, 'f', -1, 64),
		"--allpairs_global", c.Input,
		"--alnout", c.Output,
	}, nil
}

// NormalizeMatchRate accepts a fraction in (0, 1] or a percentage in (1, 100).
func NormalizeMatchRate(rate float64) (float64, error) {
	switch {
	case rate > 0 && rate <= 1:
		return rate, nil
	case rate > 1 && rate < 100:
		return rate / 100, nil
	default:
		return 0, fmt.Errorf("match rate %v must be a fraction between 0 and 1 or a percentage", rate)
	}
}
