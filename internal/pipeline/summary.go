package pipeline

import (
	"fmt"
	"time"

	"github.com/DeusData/codebase-index/internal/resolve"
)

// Stage names used in FileError and Summary.Timings.
const (
	StageDiscover = "discover"
	StageRead     = "read"
	StageCleanup  = "cleanup"
	StageParse    = "parse"
	StageCollect  = "collect"
	StageContext  = "context"
	StageResolve  = "resolve"
	StageWrite    = "write"
)

// FileError is a per-file failure. It never aborts the batch.
type FileError struct {
	Path  string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Summary reports the outcome of one run.
type Summary struct {
	Discovered            int                      `json:"discovered"`
	Indexed               int                      `json:"indexed"`
	Unchanged             int                      `json:"unchanged"`
	Removed               int                      `json:"removed"`
	Dependents            int                      `json:"dependents"` // unchanged files re-indexed for their outgoing edges
	Failed                int                      `json:"failed"`
	FileErrors            []*FileError             `json:"-"`
	SymbolsAdded          int                      `json:"symbols_added"`
	SymbolsRemoved        int                      `json:"symbols_removed"`
	RelationshipsResolved int                      `json:"relationships_resolved"`
	Resolve               resolve.Stats            `json:"resolve"`
	Timings               map[string]time.Duration `json:"timings"`
}

func newSummary() *Summary {
	return &Summary{Timings: make(map[string]time.Duration)}
}

func (s *Summary) fail(path, stage string, err error) {
	s.FileErrors = append(s.FileErrors, &FileError{Path: path, Stage: stage, Err: err})
	s.Failed++
}

// Errors returns the per-file failures as strings, for display.
func (s *Summary) Errors() []string {
	out := make([]string, len(s.FileErrors))
	for i, fe := range s.FileErrors {
		out[i] = fe.Error()
	}
	return out
}
