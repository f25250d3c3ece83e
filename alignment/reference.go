package alignment

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/gmaffy/nanoflow/files"
)

var ErrEmptyReference = errors.New("reference contains no sequences")

// ReferenceInfo describes a FASTA reference.
type ReferenceInfo struct {
	Sequences int
	Bases     int
	FirstID   string
}

// InspectReference scans a FASTA reference (optionally gzipped). Paths that
// are not FASTA, such as prebuilt minimap2 indexes, are only checked for
// existence.
func InspectReference(path string) (ReferenceInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ReferenceInfo{}, fmt.Errorf("reference: %w", err)
	}
	if info.IsDir() {
		return ReferenceInfo{}, fmt.Errorf("reference %s is a directory", path)
	}
	if files.Classify(path) != files.Fasta {
		return ReferenceInfo{}, nil
	}

	rc, err := files.Open(path)
	if err != nil {
		return ReferenceInfo{}, err
	}
	defer rc.Close()
	return scanReference(rc)
}

func scanReference(r io.Reader) (ReferenceInfo, error) {
	var ri ReferenceInfo
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		seq := sc.Seq().(*linear.Seq)
		if f := strings.Fields(seq.ID); ri.Sequences == 0 && len(f) > 0 {
			ri.FirstID = f[0]
		}
		ri.Sequences++
		ri.Bases += seq.Len()
	}
	if err := sc.Error(); err != nil {
		return ri, fmt.Errorf("reading reference: %w", err)
	}
	if ri.Sequences == 0 {
		return ri, ErrEmptyReference
	}
	return ri, nil
}
