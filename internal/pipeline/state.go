package pipeline

import "github.com/jackzampolin/archivist/internal/locate"

// Phase is where an entry is in the matcher.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseSearching Phase = "searching"
	PhaseMatched   Phase = "matched"
	PhaseExhausted Phase = "exhausted"
)

// EntryState tracks one TOC entry through the matcher.
type EntryState struct {
	Index     int                 `json:"index" yaml:"index"`
	Title     string              `json:"title" yaml:"title"`
	Phase     Phase               `json:"phase" yaml:"phase"`
	Strategy  locate.StrategyKind `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Candidate int                 `json:"candidate" yaml:"candidate"`
	Calls     int                 `json:"calls" yaml:"calls"`
}
