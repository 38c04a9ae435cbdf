package pipeline

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/archivist/internal/types"
)

// ErrCheckpoint marks a failed progress write inside a stage. It ends the
// run like a halt: continuing would leave work that is neither saved nor
// reported.
var ErrCheckpoint = errors.New("checkpoint failed")

// HaltError stops a run after the oracle quota was exhausted twice in a
// row. The checkpoint on disk holds everything completed before the halt.
type HaltError struct {
	Stage            string
	Remaining        []types.TOCEntry
	RemainingRecords int
	Checkpoint       string
	Err              error
}

func (e *HaltError) Error() string {
	n := len(e.Remaining)
	if e.RemainingRecords > 0 {
		n = e.RemainingRecords
	}
	return fmt.Sprintf("%s halted with %d items remaining (checkpoint %s): %v", e.Stage, n, e.Checkpoint, e.Err)
}

func (e *HaltError) Unwrap() error {
	return e.Err
}
