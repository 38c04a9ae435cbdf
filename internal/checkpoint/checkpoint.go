// Package checkpoint persists pipeline progress so an interrupted run can
// resume. Every write replaces the target file atomically.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/jackzampolin/archivist/internal/types"
)

// Sidecar suffixes appended to the destination path.
const (
	RemainingSuffix = ".remaining.json"
	NotFoundSuffix  = ".not_found.json"
)

// Remaining describes work left when a run stops early.
type Remaining struct {
	Reason  string                `json:"reason,omitempty"`
	Entries []types.TOCEntry      `json:"entries,omitempty"`    // TOC entries not yet matched, current one first
	Records []types.ArticleRecord `json:"records,omitempty"`    // records not yet enriched
	Chunk   *int                  `json:"next_chunk,omitempty"` // first scan chunk not yet processed
}

// Empty reports whether there is no remaining work.
func (r Remaining) Empty() bool {
	return len(r.Entries) == 0 && len(r.Records) == 0 && r.Chunk == nil
}

// Checkpointer writes the record array to dest and its sidecars next to it.
type Checkpointer struct {
	dest   string
	logger *slog.Logger
}

// New creates a Checkpointer for dest.
func New(dest string, logger *slog.Logger) *Checkpointer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkpointer{dest: dest, logger: logger}
}

// Path returns the destination path.
func (c *Checkpointer) Path() string { return c.dest }

// RemainingPath returns the remaining-work sidecar path.
func (c *Checkpointer) RemainingPath() string { return c.dest + RemainingSuffix }

// NotFoundPath returns the not-found sidecar path.
func (c *Checkpointer) NotFoundPath() string { return c.dest + NotFoundSuffix }

// Persist replaces the destination with records and records the remaining
// work in the sidecar. An empty remaining removes the sidecar. Calling it
// twice with the same arguments produces identical files.
func (c *Checkpointer) Persist(records []types.ArticleRecord, remaining Remaining) error {
	if records == nil {
		records = []types.ArticleRecord{}
	}
	if err := c.write(c.dest, records); err != nil {
		return err
	}

	if remaining.Empty() {
		if err := os.Remove(c.RemainingPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove remaining sidecar: %w", err)
		}
	} else if err := c.write(c.RemainingPath(), remaining); err != nil {
		return err
	}

	c.logger.Debug("checkpoint persisted",
		"path", c.dest,
		"records", len(records),
		"remaining_entries", len(remaining.Entries),
		"remaining_records", len(remaining.Records))
	return nil
}

// WriteNotFound writes the titles that were never matched.
func (c *Checkpointer) WriteNotFound(titles []string) error {
	if titles == nil {
		titles = []string{}
	}
	return c.write(c.NotFoundPath(), titles)
}

// Load reads the records at the destination. A missing file is an empty
// checkpoint.
func (c *Checkpointer) Load() ([]types.ArticleRecord, error) {
	var records []types.ArticleRecord
	ok, err := readJSON(c.dest, &records)
	if err != nil || !ok {
		return nil, err
	}
	return records, nil
}

// LoadRemaining reads the remaining-work sidecar. A missing file means
// nothing remains.
func (c *Checkpointer) LoadRemaining() (Remaining, error) {
	var r Remaining
	_, err := readJSON(c.RemainingPath(), &r)
	return r, err
}

// Marshal renders v the way every checkpoint file is written: two-space
// indent and a trailing newline.
func Marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (c *Checkpointer) write(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	if err := atomicwriter.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}
