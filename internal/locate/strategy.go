package locate

import (
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackzampolin/archivist/internal/chunk"
	"github.com/jackzampolin/archivist/internal/textnorm"
)

// Default window sizes around an anchor line.
const (
	DefaultWindowBefore = 50
	DefaultWindowAfter  = 2000
	DefaultSweepSize    = 8000
	DefaultSweepOverlap = 500
)

// StrategyKind names a candidate-generation strategy.
type StrategyKind string

const (
	StrategyPageAnchor StrategyKind = "page_anchor"
	StrategyTitleScan  StrategyKind = "title_scan"
	StrategySweep      StrategyKind = "sweep"
)

// Target is what the locator searches for.
type Target struct {
	Title   string
	Authors []string
	Page    *int // nil or <= 0 means no hint
}

// Region is a candidate window of the document. Lines are half-open.
type Region struct {
	Strategy  StrategyKind `json:"strategy"`
	Index     int          `json:"index"`
	StartLine int          `json:"start_line"`
	EndLine   int          `json:"end_line"`
	Text      string       `json:"-"`
}

// Strategy produces candidate regions for a target, most promising first.
type Strategy interface {
	Kind() StrategyKind
	Candidates(doc *Document, target Target) iter.Seq[Region]
}

// Window is the number of lines kept before and after an anchor line.
type Window struct {
	Before int
	After  int
}

func (w Window) around(doc *Document, line int) (int, int) {
	return max(0, line-w.Before), min(doc.Len(), line+w.After)
}

// PageAnchor looks for the first line that is the printed page number, or
// starts with it followed by a word.
type PageAnchor struct {
	Window Window
}

func (PageAnchor) Kind() StrategyKind { return StrategyPageAnchor }

func (s PageAnchor) Candidates(doc *Document, target Target) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		if target.Page == nil || *target.Page <= 0 {
			return
		}
		page := strconv.Itoa(*target.Page)
		bare := regexp.MustCompile(`^\s*` + page + `\s*$`)
		leading := regexp.MustCompile(`^` + page + `\s+[\p{L}\p{N}_]`)

		for i, line := range doc.Lines() {
			if bare.MatchString(line) || leading.MatchString(line) {
				start, end := s.Window.around(doc, i)
				yield(Region{
					Strategy:  StrategyPageAnchor,
					StartLine: start,
					EndLine:   end,
					Text:      doc.Slice(start, end),
				})
				return
			}
		}
	}
}

// TitleScan yields a window around every line mentioning the title, in
// document order. A line matches on normalized containment, on a
// case-insensitive raw match, or on the upper-cased title verbatim.
type TitleScan struct {
	Window Window
}

func (TitleScan) Kind() StrategyKind { return StrategyTitleScan }

func (s TitleScan) Candidates(doc *Document, target Target) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		raw := strings.TrimSpace(target.Title)
		if raw == "" {
			return
		}
		normTitle := textnorm.Title(raw)
		lower := strings.ToLower(raw)
		upper := strings.ToUpper(raw)

		norm := doc.normalized()
		idx := 0
		for i, line := range doc.Lines() {
			hit := (normTitle != "" && strings.Contains(norm[i], normTitle)) ||
				strings.Contains(strings.ToLower(line), lower) ||
				strings.Contains(line, upper)
			if !hit {
				continue
			}
			start, end := s.Window.around(doc, i)
			if !yield(Region{
				Strategy:  StrategyTitleScan,
				Index:     idx,
				StartLine: start,
				EndLine:   end,
				Text:      doc.Slice(start, end),
			}) {
				return
			}
			idx++
		}
	}
}

// Sweep walks the whole document in overlapping line windows.
type Sweep struct {
	Splitter chunk.Splitter
}

func (Sweep) Kind() StrategyKind { return StrategySweep }

func (s Sweep) Candidates(doc *Document, _ Target) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for c := range s.Splitter.SplitLines(doc.Lines()) {
			if !yield(Region{
				Strategy:  StrategySweep,
				Index:     c.Index,
				StartLine: c.Start,
				EndLine:   c.End,
				Text:      c.Text,
			}) {
				return
			}
		}
	}
}
