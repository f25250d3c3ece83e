// Package files discovers sequence files and classifies them by format.
package files

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
)

var DefaultExtensions = []string{".fastq", ".fasta"}

// Kind is the declared format of a file, inferred from its name.
type Kind int

const (
	Other Kind = iota
	Fastq
	Fasta
)

func (k Kind) String() string {
	switch k {
	case Fastq:
		return "FASTQ"
	case Fasta:
		return "FASTA"
	default:
		return "other"
	}
}

// Delimiter is the first byte of a record header line, 0 for Other.
func (k Kind) Delimiter() byte {
	switch k {
	case Fastq:
		return '@'
	case Fasta:
		return '>'
	default:
		return 0
	}
}

// Record is one discovered file.
type Record struct {
	Path string
	Kind Kind
}

// Classify infers the format from the file name, case-insensitively.
func Classify(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	switch strings.TrimSuffix(FormatExt(name), ".gz") {
	case ".fq":
		return Fastq
	case ".fa", ".fna":
		return Fasta
	}
	switch {
	case strings.Contains(name, ".fastq"):
		return Fastq
	case strings.Contains(name, ".fasta"):
		return Fasta
	default:
		return Other
	}
}

// FormatExt returns the format extension of name, including a trailing
// compression suffix: "x.fastq.gz" gives ".fastq.gz".
func FormatExt(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".gz") {
		stem := strings.TrimSuffix(base, ext)
		return filepath.Ext(stem) + ext
	}
	return ext
}

// IsGzip reports whether the file name carries a gzip suffix.
func IsGzip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".gz")
}

// Matches reports whether name contains one of exts, ignoring case.
func Matches(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if e != "" && strings.Contains(lower, strings.ToLower(e)) {
			return true
		}
	}
	return false
}

// Collect walks root and returns every regular file whose name contains one
// of exts. No match is not an error. The result is in walk order, which is
// lexical within each directory.
func Collect(root string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if Matches(d.Name(), exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Sorted collects and sorts lexicographically by full path.
func Sorted(root string, exts []string) ([]string, error) {
	paths, err := Collect(root, exts)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Records collects, sorts and classifies.
func Records(root string, exts []string) ([]Record, error) {
	paths, err := Sorted(root, exts)
	if err != nil {
		return nil, err
	}
	recs := make([]Record, len(paths))
	for i, p := range paths {
		recs[i] = Record{Path: p, Kind: Classify(p)}
	}
	return recs, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open returns a buffered reader over path, decompressing .gz input.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsGzip(path) {
		return &readCloser{Reader: bufio.NewReader(f), closers: []io.Closer{f}}, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{Reader: gz, closers: []io.Closer{f, gz}}, nil
}

// All returns every regular file under root, sorted.
func All(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
