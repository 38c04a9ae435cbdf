package types

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadTOC reads a JSON array of TOC entries from path.
func LoadTOC(path string) ([]TOCEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open toc: %w", err)
	}
	defer f.Close()
	return ParseTOC(f)
}

// ParseTOC decodes a JSON array of TOC entries, preserving file order.
func ParseTOC(r io.Reader) ([]TOCEntry, error) {
	var entries []TOCEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode toc: %w", err)
	}
	for i, e := range entries {
		if e.Title == "" {
			return nil, fmt.Errorf("toc entry %d has no name", i)
		}
	}
	return entries, nil
}

// NextTitle returns the title following entries[i], or "" for the last entry.
func NextTitle(entries []TOCEntry, i int) string {
	if i+1 < len(entries) {
		return entries[i+1].Title
	}
	return ""
}
