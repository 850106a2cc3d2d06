package txn

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DeusData/codebase-index/internal/types"
)

func sampleIndex() *types.IndexData {
	d := types.NewIndexData()
	fid := d.AllocFileID()
	d.Files["src/lib.rs"] = fid
	d.FileInfos[fid] = types.FileInfo{ID: fid, Path: "src/lib.rs", Hash: "abc", Language: "rust", IndexedAt: 1}
	for _, name := range []string{"main", "helper"} {
		d.Symbols = append(d.Symbols, types.Symbol{ID: d.AllocSymbolID(), Name: name, FileID: fid})
	}
	d.Relationships = append(d.Relationships, types.Relationship{
		FromID: 1, ToID: 2, Kind: types.Calls,
		Metadata: &types.RelationshipMetadata{Line: 3},
	})
	d.Imports[fid] = []types.Import{{Path: "crate::util", FileID: fid}}
	return d
}

func TestRollbackRestoresState(t *testing.T) {
	live := sampleIndex()
	before := live.Clone()

	tx := Begin(live, "test")
	live.Symbols = append(live.Symbols, types.Symbol{ID: live.AllocSymbolID(), Name: "extra", FileID: 1})
	live.Relationships[0].Metadata.Line = 99
	live.RemoveFile(1)
	live.AllocFileID()

	if tx.Snapshot().Equal(live) {
		t.Fatal("snapshot follows live mutations")
	}
	restored := tx.Rollback()
	if !restored.Equal(before) {
		t.Errorf("restored state differs from pre-Begin state")
	}
	if restored.NextSymbolID != before.NextSymbolID || restored.NextFileID != before.NextFileID {
		t.Errorf("counters = %d/%d, want %d/%d", restored.NextFileID, restored.NextSymbolID, before.NextFileID, before.NextSymbolID)
	}
	if tx.IsActive() {
		t.Error("transaction still active after Rollback")
	}
}

func TestRollbackReturnsIndependentCopies(t *testing.T) {
	tx := Begin(sampleIndex(), "test")
	a := tx.Rollback()
	a.Symbols[0].Name = "changed"
	if tx.Snapshot().Symbols[0].Name != "main" {
		t.Error("Rollback result shares memory with the snapshot")
	}
}

func TestComplete(t *testing.T) {
	tx := Begin(sampleIndex(), "test")
	if !tx.IsActive() {
		t.Fatal("new transaction is not active")
	}
	tx.Complete()
	tx.Complete()
	if tx.IsActive() {
		t.Error("transaction active after Complete")
	}
}

func TestBeginNil(t *testing.T) {
	tx := Begin(nil, "empty")
	defer tx.Complete()
	if tx.Snapshot() == nil || tx.Snapshot().NextFileID != 1 {
		t.Errorf("snapshot = %+v", tx.Snapshot())
	}
}

func TestBeginFile(t *testing.T) {
	live := sampleIndex()
	ft := BeginFile(live, 1, "src/lib.rs")
	defer ft.Complete()
	if ft.FileID != 1 || ft.Path != "src/lib.rs" {
		t.Errorf("file transaction = %+v", ft)
	}
	if len(ft.OldSymbols) != 2 || ft.OldSymbols[0] != 1 || ft.OldSymbols[1] != 2 {
		t.Errorf("OldSymbols = %v", ft.OldSymbols)
	}
	if !ft.Snapshot().Equal(live) {
		t.Error("snapshot differs from live state at Begin")
	}
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestDroppedTransactionIsReported(t *testing.T) {
	var dropped atomic.Int32
	var label atomic.Value
	orig := reportDropped
	reportDropped = func(l string, _, _ int) {
		label.Store(l)
		dropped.Add(1)
	}
	defer func() { reportDropped = orig }()

	func() {
		_ = Begin(sampleIndex(), "forgotten")
	}()
	if !waitFor(t, func() bool { return dropped.Load() > 0 }) {
		t.Fatal("dropped transaction was not reported")
	}
	if l, _ := label.Load().(string); l != "forgotten" {
		t.Errorf("label = %q", l)
	}
}

func TestCompletedTransactionIsNotReported(t *testing.T) {
	var dropped atomic.Int32
	orig := reportDropped
	reportDropped = func(string, int, int) { dropped.Add(1) }
	defer func() { reportDropped = orig }()

	func() {
		Begin(sampleIndex(), "done").Complete()
		_ = Begin(sampleIndex(), "rolled back").Rollback()
	}()
	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if n := dropped.Load(); n != 0 {
		t.Errorf("completed transactions reported %d times", n)
	}
}
