// Package chunk splits text into overlapping windows.
//
// Offsets are half-open. Character windows count runes, not bytes, so a
// window never splits a multi-byte code point. Line windows count lines of a
// pre-split document.
package chunk

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrInvalidConfiguration is returned when size/overlap cannot produce
// forward progress.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Unit is the unit a Splitter counts in.
type Unit string

const (
	UnitRunes Unit = "runes"
	UnitLines Unit = "lines"
)

// Chunk is one window of the input.
type Chunk struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Splitter holds a validated window configuration. The zero value is not
// usable; construct with New.
type Splitter struct {
	Unit    Unit
	Size    int
	Overlap int
}

// New validates the configuration and returns a Splitter.
func New(unit Unit, size, overlap int) (Splitter, error) {
	if err := Validate(size, overlap); err != nil {
		return Splitter{}, err
	}
	switch unit {
	case UnitRunes, UnitLines:
	default:
		return Splitter{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidConfiguration, unit)
	}
	return Splitter{Unit: unit, Size: size, Overlap: overlap}, nil
}

// Validate checks that size and overlap give a positive stride.
func Validate(size, overlap int) error {
	if overlap < 0 {
		return fmt.Errorf("%w: overlap %d is negative", ErrInvalidConfiguration, overlap)
	}
	if size-overlap <= 0 {
		return fmt.Errorf("%w: size %d must exceed overlap %d", ErrInvalidConfiguration, size, overlap)
	}
	return nil
}

// Stride is the distance between consecutive window starts.
func (s Splitter) Stride() int {
	return s.Size - s.Overlap
}

// Count returns how many windows an input of length n produces.
func (s Splitter) Count(n int) int {
	if n <= 0 {
		return 0
	}
	if n <= s.Size {
		return 1
	}
	stride := s.Stride()
	return 1 + (n-s.Size+stride-1)/stride
}

// Spans yields the [start, end) bounds of each window over an input of
// length n. The last window ends exactly at n.
func (s Splitter) Spans(n int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		stride := s.Stride()
		if stride <= 0 {
			return
		}
		for start := 0; start < n; start += stride {
			end := min(start+s.Size, n)
			if !yield(start, end) {
				return
			}
			if end == n {
				return
			}
		}
	}
}

// Split windows text by runes. For a line splitter, text is split on "\n"
// first and windows are joined back with "\n".
func (s Splitter) Split(text string) iter.Seq[Chunk] {
	if s.Unit == UnitLines {
		return s.SplitLines(strings.Split(text, "\n"))
	}
	return func(yield func(Chunk) bool) {
		if text == "" {
			return
		}
		runes := []rune(text)
		i := 0
		for start, end := range s.Spans(len(runes)) {
			if !yield(Chunk{Index: i, Start: start, End: end, Text: string(runes[start:end])}) {
				return
			}
			i++
		}
	}
}

// SplitLines windows a pre-split document. Each chunk's Text is its lines
// joined with "\n".
func (s Splitter) SplitLines(lines []string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		i := 0
		for start, end := range s.Spans(len(lines)) {
			if !yield(Chunk{Index: i, Start: start, End: end, Text: strings.Join(lines[start:end], "\n")}) {
				return
			}
			i++
		}
	}
}

// Runes returns rune windows over text.
func Runes(text string, size, overlap int) (iter.Seq[Chunk], error) {
	s, err := New(UnitRunes, size, overlap)
	if err != nil {
		return nil, err
	}
	return s.Split(text), nil
}

// Lines returns line windows over lines.
func Lines(lines []string, size, overlap int) (iter.Seq[Chunk], error) {
	s, err := New(UnitLines, size, overlap)
	if err != nil {
		return nil, err
	}
	return s.SplitLines(lines), nil
}
