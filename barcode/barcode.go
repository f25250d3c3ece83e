// Package barcode derives the unit-of-work key of a read file from its path.
package barcode

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	numberedMarker     = "barcode"
	numberedWidth      = 9
	unclassifiedMarker = "unclassified"
	unclassifiedWidth  = 12
)

type Class int

const (
	Numbered Class = iota
	Unclassified
)

// Key identifies a barcode bucket. For numbered keys Label is the fixed-width
// slice of the path, e.g. "barcode07". For unclassified keys Index
// disambiguates unrelated unclassified sources.
type Key struct {
	Class Class
	Label string
	Index int

	// source identifies the bucket: the path up to the marker slice for
	// numbered keys, up to the end of the marker's path component for
	// unclassified ones.
	source string
}

func (k Key) String() string {
	if k.Class == Unclassified && k.Index > 0 {
		return k.Label + strconv.Itoa(k.Index)
	}
	return k.Label
}

// Number returns the barcode number, or -1 if the label has no numeric tail.
func (k Key) Number() int {
	if k.Class != Numbered {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(k.Label, numberedMarker))
	if err != nil {
		return -1
	}
	return n
}

type NoBarcodeFoundError struct {
	Path string
}

func (e *NoBarcodeFoundError) Error() string {
	return fmt.Sprintf("no barcode found in %q", e.Path)
}

func slice(s string, at, width int) string {
	end := at + width
	if end > len(s) {
		end = len(s)
	}
	return s[at:end]
}

// componentEnd is the index of the first path separator at or after i, or
// len(path).
func componentEnd(path string, i int) int {
	if j := strings.IndexAny(path[i:], `/\`); j >= 0 {
		return i + j
	}
	return len(path)
}

// digitsAt parses the run of digits starting at i, 0 if there is none.
func digitsAt(path string, i int) int {
	j := i
	for j < len(path) && path[j] >= '0' && path[j] <= '9' {
		j++
	}
	n, _ := strconv.Atoi(path[i:j])
	return n
}

// Extract locates the first "barcode" in path and takes 9 bytes, otherwise
// the first "unclassified" and takes 12. Digits right after "unclassified"
// are read back into Index, so keys handed out by a Registry survive a
// rename. It never disambiguates; use a Registry for that.
func Extract(path string) (Key, error) {
	if i := strings.Index(path, numberedMarker); i >= 0 {
		label := slice(path, i, numberedWidth)
		return Key{Class: Numbered, Label: label, source: path[:i] + label}, nil
	}
	if i := strings.Index(path, unclassifiedMarker); i >= 0 {
		label := slice(path, i, unclassifiedWidth)
		return Key{
			Class:  Unclassified,
			Label:  label,
			Index:  digitsAt(path, i+len(unclassifiedMarker)),
			source: path[:componentEnd(path, i)],
		}, nil
	}
	return Key{}, &NoBarcodeFoundError{Path: path}
}

// Registry hands out keys for one aggregation run. Each unclassified source
// (the path component holding the marker) gets its own index. A source that
// already carries an index keeps it when free; the others take the lowest
// free index, so the first plain source stays "unclassified".
type Registry struct {
	sources []string
	index   map[string]int
	used    map[int]bool
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}, used: map[int]bool{}}
}

func (r *Registry) Resolve(path string) (Key, error) {
	k, err := Extract(path)
	if err != nil || k.Class != Unclassified {
		return k, err
	}
	if r.index == nil {
		r.index = map[string]int{}
		r.used = map[int]bool{}
	}
	n, ok := r.index[k.source]
	if !ok {
		n = k.Index
		for r.used[n] {
			n++
		}
		r.index[k.source] = n
		r.used[n] = true
		r.sources = append(r.sources, k.source)
	}
	k.Index = n
	return k, nil
}

// Sources lists the distinct unclassified sources in first-seen order.
func (r *Registry) Sources() []string {
	return append([]string(nil), r.sources...)
}

// ResolveUnder resolves path relative to root so that directory names above
// root never produce a key. It falls back to the full path when the relative
// path carries no barcode.
func (r *Registry) ResolveUnder(root, path string) (Key, error) {
	if rel, err := filepath.Rel(root, path); err == nil {
		if k, err := r.Resolve(rel); err == nil {
			return k, nil
		}
	}
	return r.Resolve(path)
}
