// Package types provides shared types used across multiple packages.
// This package has no dependencies on other archivist packages to avoid import cycles.
package types

import "strings"

// ConfidenceLevel is the oracle's self-reported confidence in a match.
// It is advisory only and never gates acceptance.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceNone   ConfidenceLevel = "none"
)

// ParseConfidenceLevel converts a string to a ConfidenceLevel.
// Returns ConfidenceNone if the string is not recognized.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// TOCEntry is one row of the ground-truth table of contents.
// Entry order is significant: the following entry's title is a soft
// end-of-article hint for the current one.
type TOCEntry struct {
	Title   string   `json:"name"`
	Authors []string `json:"authors"`
	Volume  *int     `json:"volume,omitempty"`
	Years   string   `json:"years,omitempty"`
	Page    *int     `json:"page,omitempty"`
}

// ArticleRecord is a recovered article. JSON keys match the published
// dataset layout.
type ArticleRecord struct {
	Title    string   `json:"Title"`
	Authors  []string `json:"Authors"`
	Abstract string   `json:"Abstract"`
	Text     string   `json:"Text"`
	Tags     []string `json:"Tags"`
	Volume   *int     `json:"Volume"`
	Years    string   `json:"Years"`
	Page     *int     `json:"Page"`
}

// NewRecord builds a record for entry with the extracted body text.
// Abstract and Tags are left for the enrich stage.
func NewRecord(entry TOCEntry, text string) ArticleRecord {
	authors := entry.Authors
	if authors == nil {
		authors = []string{}
	}
	return ArticleRecord{
		Title:   entry.Title,
		Authors: authors,
		Text:    text,
		Tags:    []string{},
		Volume:  entry.Volume,
		Years:   entry.Years,
		Page:    entry.Page,
	}
}
