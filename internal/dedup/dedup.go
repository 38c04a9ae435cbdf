// Package dedup removes repeated articles by normalized title.
package dedup

import (
	"github.com/jackzampolin/archivist/internal/textnorm"
	"github.com/jackzampolin/archivist/internal/types"
)

// Key returns the dedup key for a title.
func Key(title string) string {
	return textnorm.Title(title)
}

// Records keeps the first record for each key, in input order.
func Records(records []types.ArticleRecord) []types.ArticleRecord {
	out := make([]types.ArticleRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		k := Key(r.Title)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
