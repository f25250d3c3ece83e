package counting

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gopkg.in/yaml.v3"
)

const (
	KeyColumn   = "barcode_number"
	CountColumn = "reads_in_barcode"
)

// Frame returns the summary as a two column dataframe sorted by key.
func (s *Summary) Frame() dataframe.DataFrame {
	keys := s.Keys()
	counts := make([]int, len(keys))
	for i, k := range keys {
		counts[i] = s.Counts[k]
	}
	return dataframe.New(
		series.New(keys, series.String, KeyColumn),
		series.New(counts, series.Int, CountColumn),
	)
}

// WriteCSV writes "barcode_number,reads_in_barcode" and one row per key.
func (s *Summary) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Frame().WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

type snapshotEntry struct {
	Reads int    `yaml:"reads"`
	File  string `yaml:"file"`
}

type snapshot struct {
	Barcodes map[string]snapshotEntry `yaml:"barcodes"`
	Skipped  []string                 `yaml:"skipped,omitempty"`
}

// WriteSnapshot stores the full mapping in YAML for later reuse.
func (s *Summary) WriteSnapshot(path string) error {
	snap := snapshot{Barcodes: make(map[string]snapshotEntry, len(s.Counts)), Skipped: s.Skipped}
	for k, n := range s.Counts {
		snap.Barcodes[k] = snapshotEntry{Reads: n, File: s.Files[k]}
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func LoadSnapshot(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	s := NewSummary()
	for k, e := range snap.Barcodes {
		s.Add(k, e.Reads, e.File)
	}
	s.Skipped = snap.Skipped
	return s, nil
}

// ReadCSV loads a counts table written by WriteCSV.
func ReadCSV(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, df.Err)
	}
	keys := df.Col(KeyColumn)
	if keys.Err != nil {
		return nil, fmt.Errorf("%s: %w", path, keys.Err)
	}
	counts := df.Col(CountColumn)
	if counts.Err != nil {
		return nil, fmt.Errorf("%s: %w", path, counts.Err)
	}
	ints, err := counts.Int()
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", path, CountColumn, err)
	}

	s := NewSummary()
	for i, k := range keys.Records() {
		s.Add(k, ints[i], "")
	}
	return s, nil
}
