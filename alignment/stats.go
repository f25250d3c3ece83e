package alignment

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

const (
	GenomeColumn   = "alignment_genome"
	unalignedMark  = "*"
	summaryPrefix  = "guppy_aligner_"
	statsPrefix    = "simple_statistics_"
	SummaryDirName = "AlignmentSummary"
	StatsDirName   = "SimpleStatistics"
)

// Stats are the classified/unclassified totals of one alignment summary.
type Stats struct {
	Total        int
	Classified   int
	Unclassified int
}

// Summarize counts genomes that are not "*" as classified.
func Summarize(genomes []string) Stats {
	var s Stats
	for _, g := range genomes {
		if g != unalignedMark {
			s.Classified++
		} else {
			s.Unclassified++
		}
		s.Total++
	}
	return s
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func (s Stats) PercentClassified() float64   { return percent(s.Classified, s.Total) }
func (s Stats) PercentUnclassified() float64 { return percent(s.Unclassified, s.Total) }

// Lines is the five line report.
func (s Stats) Lines() []string {
	return []string{
		fmt.Sprintf("Total reads: %d", s.Total),
		fmt.Sprintf("Classified reads: %d", s.Classified),
		fmt.Sprintf("Unclassified reads: %d", s.Unclassified),
		fmt.Sprintf("Percent classified: %.3f%%", s.PercentClassified()),
		fmt.Sprintf("Percent unclassified: %.3f%%", s.PercentUnclassified()),
	}
}

// ReadSummaryTable loads a tab separated alignment summary.
func ReadSummaryTable(path string) (dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return readSummary(path, data)
}

func readSummary(path string, data []byte) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter('\t'),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		return df, fmt.Errorf("reading %s: %w", path, df.Err)
	}
	return df, nil
}

// SummarizeFile reads path and summarizes its genome column. A file holding
// only a header or nothing at all has zero reads.
func SummarizeFile(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, err
	}
	lines := strings.Count(strings.TrimRight(string(data), "\n"), "\n")
	if len(bytes.TrimSpace(data)) == 0 || lines == 0 {
		return Stats{}, nil
	}

	df, err := readSummary(path, data)
	if err != nil {
		return Stats{}, err
	}
	col := df.Col(GenomeColumn)
	if col.Err != nil {
		return Stats{}, fmt.Errorf("%s: %w", path, col.Err)
	}
	return Summarize(col.Records()), nil
}

// WriteSimpleStatistics writes s to dir/simple_statistics_<key>.txt.
func WriteSimpleStatistics(dir, key string, s Stats) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, statsPrefix+key+".txt")
	content := strings.Join(s.Lines(), "\n") + "\n"
	return path, os.WriteFile(path, []byte(content), 0644)
}

// SummaryKey returns the barcode key of a relocated summary file name.
func SummaryKey(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, summaryPrefix) {
		return "", false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(base, summaryPrefix), filepath.Ext(base))
	return key, key != ""
}

// SimpleStatistics summarizes every AlignmentSummary/guppy_aligner_<key>.csv
// under saveDir and writes one report per key into SimpleStatistics.
func SimpleStatistics(saveDir string) (map[string]Stats, error) {
	summaryDir := filepath.Join(saveDir, SummaryDirName)
	entries, err := os.ReadDir(summaryDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Stats{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := map[string]Stats{}
	for _, name := range names {
		key, ok := SummaryKey(name)
		if !ok {
			continue
		}
		s, err := SummarizeFile(filepath.Join(summaryDir, name))
		if err != nil {
			return out, err
		}
		if _, err := WriteSimpleStatistics(filepath.Join(saveDir, StatsDirName), key, s); err != nil {
			return out, err
		}
		out[key] = s
	}
	return out, nil
}
