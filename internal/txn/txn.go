// Package txn snapshots an index before a batch of mutations so the caller
// can restore it if the batch fails.
//
// Every transaction must end in Complete or Rollback. One that becomes
// unreachable while still active is reported with an error log.
package txn

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/DeusData/codebase-index/internal/types"
)

// state lives apart from the transaction so the cleanup can read it.
type state struct {
	done   atomic.Bool
	label  string
	files  int
	syms   int
	report func(label string, files, symbols int)
}

// reportDropped is replaced in tests.
var reportDropped = func(label string, files, symbols int) {
	slog.Error("txn.dropped", "label", label, "files", files, "symbols", symbols,
		"reason", "discarded without Complete or Rollback")
}

// IndexTransaction holds a deep copy of the index taken at Begin.
type IndexTransaction struct {
	snapshot *types.IndexData
	st       *state
	cleanup  runtime.Cleanup
}

// Begin captures a clone of current. label identifies the transaction in
// the drop diagnostic.
func Begin(current *types.IndexData, label string) *IndexTransaction {
	if current == nil {
		current = types.NewIndexData()
	}
	snap := current.Clone()
	t := &IndexTransaction{
		snapshot: snap,
		st:       &state{label: label, files: len(snap.Files), syms: len(snap.Symbols), report: reportDropped},
	}
	t.cleanup = runtime.AddCleanup(t, func(st *state) {
		if !st.done.Load() {
			st.report(st.label, st.files, st.syms)
		}
	}, t.st)
	return t
}

// Snapshot returns the pre-mutation state. Callers must not modify it.
func (t *IndexTransaction) Snapshot() *types.IndexData {
	return t.snapshot
}

// Complete marks the transaction committed.
func (t *IndexTransaction) Complete() {
	t.finish()
}

// Rollback ends the transaction and returns a fresh copy of the snapshot
// for the caller to reinstall.
func (t *IndexTransaction) Rollback() *types.IndexData {
	t.finish()
	return t.snapshot.Clone()
}

func (t *IndexTransaction) finish() {
	if t.st.done.CompareAndSwap(false, true) {
		t.cleanup.Stop()
	}
}

// IsActive reports whether neither Complete nor Rollback was called.
func (t *IndexTransaction) IsActive() bool {
	return !t.st.done.Load()
}

// FileTransaction is a transaction that replaces the symbols of one file.
type FileTransaction struct {
	*IndexTransaction
	FileID     types.FileID
	Path       string
	OldSymbols []types.SymbolID
}

// BeginFile starts a transaction for replacing fileID's content. The ids
// the file currently owns are recorded as OldSymbols.
func BeginFile(current *types.IndexData, fileID types.FileID, path string) *FileTransaction {
	var old []types.SymbolID
	if current != nil {
		old = current.SymbolsInFile(fileID)
	}
	return &FileTransaction{
		IndexTransaction: Begin(current, path),
		FileID:           fileID,
		Path:             path,
		OldSymbols:       old,
	}
}
