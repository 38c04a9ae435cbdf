package locate

import (
	"strings"
	"sync"

	"github.com/jackzampolin/archivist/internal/textnorm"
)

// Document is a source text split into lines. Normalized lines are computed
// once on first use and shared by every title scan over the document.
type Document struct {
	lines []string

	normOnce sync.Once
	norm     []string
}

// NewDocument splits text on "\n".
func NewDocument(text string) *Document {
	return &Document{lines: strings.Split(text, "\n")}
}

// NewDocumentFromLines wraps already-split lines.
func NewDocumentFromLines(lines []string) *Document {
	return &Document{lines: lines}
}

// Len returns the number of lines.
func (d *Document) Len() int {
	return len(d.lines)
}

// Lines returns the underlying lines. Callers must not modify them.
func (d *Document) Lines() []string {
	return d.lines
}

// Slice joins lines [start, end) with "\n".
func (d *Document) Slice(start, end int) string {
	return strings.Join(d.lines[start:end], "\n")
}

func (d *Document) normalized() []string {
	d.normOnce.Do(func() {
		d.norm = make([]string, len(d.lines))
		for i, l := range d.lines {
			d.norm[i] = textnorm.Title(l)
		}
	})
	return d.norm
}
