package types

import "testing"

func TestRangeContains(t *testing.T) {
	r := NewRange(2, 4, 5, 1)
	tests := []struct {
		line, col uint32
		want      bool
	}{
		{2, 4, true},
		{2, 3, false},
		{3, 0, true},
		{5, 0, true},
		{5, 1, false},
		{1, 10, false},
		{6, 0, false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.line, tt.col); got != tt.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", tt.line, tt.col, got, tt.want)
		}
	}
}

func TestAllocIDsNeverZeroOrReused(t *testing.T) {
	d := NewIndexData()
	seen := map[SymbolID]bool{}
	for i := 0; i < 100; i++ {
		id := d.AllocSymbolID()
		if id == 0 {
			t.Fatal("allocated zero symbol id")
		}
		if seen[id] {
			t.Fatalf("symbol id %d reused", id)
		}
		seen[id] = true
	}
	if f1, f2 := d.AllocFileID(), d.AllocFileID(); f1 == 0 || f1 == f2 {
		t.Fatalf("bad file ids %d %d", f1, f2)
	}
}

func TestRemoveFile(t *testing.T) {
	d := NewIndexData()
	f1, f2 := d.AllocFileID(), d.AllocFileID()
	d.Files["a.rs"], d.Files["b.rs"] = f1, f2
	d.FileInfos[f1] = FileInfo{ID: f1, Path: "a.rs"}
	d.FileInfos[f2] = FileInfo{ID: f2, Path: "b.rs"}
	d.Symbols = []Symbol{
		{ID: 1, Name: "main", FileID: f1},
		{ID: 2, Name: "helper", FileID: f2},
		{ID: 3, Name: "other", FileID: f2},
	}
	d.Relationships = []Relationship{
		{FromID: 1, ToID: 2, Kind: Calls},
		{FromID: 3, ToID: 3, Kind: Calls},
	}
	d.Imports[f1] = []Import{{Path: "b::helper", FileID: f1}}

	removed := d.RemoveFile(f2)
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed symbols, got %v", removed)
	}
	if len(d.Symbols) != 1 || d.Symbols[0].ID != 1 {
		t.Fatalf("unexpected symbols %+v", d.Symbols)
	}
	if len(d.Relationships) != 0 {
		t.Fatalf("relationships into removed file survived: %+v", d.Relationships)
	}
	if _, ok := d.Files["b.rs"]; ok {
		t.Error("path mapping survived")
	}
	if len(d.Imports[f1]) != 1 {
		t.Error("imports of other files must be kept")
	}
}

func TestRemoveOutgoing(t *testing.T) {
	d := NewIndexData()
	d.Symbols = []Symbol{
		{ID: 1, Name: "top", FileID: 1},
		{ID: 2, Name: "mid", FileID: 2},
		{ID: 3, Name: "leaf", FileID: 3},
	}
	d.Relationships = []Relationship{
		{FromID: 1, ToID: 2, Kind: Calls},
		{FromID: 2, ToID: 3, Kind: Calls},
	}
	if n := d.RemoveOutgoing(2); n != 1 {
		t.Fatalf("RemoveOutgoing = %d, want 1", n)
	}
	if len(d.Symbols) != 3 {
		t.Errorf("symbols = %+v", d.Symbols)
	}
	if len(d.Relationships) != 1 || d.Relationships[0].FromID != 1 || d.Relationships[0].ToID != 2 {
		t.Errorf("relationships = %+v", d.Relationships)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := NewIndexData()
	d.Symbols = []Symbol{{ID: 1, Name: "a"}}
	d.Relationships = []Relationship{{FromID: 1, ToID: 1, Kind: Calls, Metadata: &RelationshipMetadata{Line: 3}}}
	d.Files["a.go"] = 1
	d.Imports[1] = []Import{{Path: "fmt"}}

	c := d.Clone()
	if !c.Equal(d) {
		t.Fatal("clone differs from original")
	}
	c.Symbols[0].Name = "b"
	c.Relationships[0].Metadata.Line = 9
	c.Files["x.go"] = 2
	c.Imports[1][0].Path = "os"

	if d.Symbols[0].Name != "a" || d.Relationships[0].Metadata.Line != 3 {
		t.Error("clone shares slices with original")
	}
	if _, ok := d.Files["x.go"]; ok {
		t.Error("clone shares file map")
	}
	if d.Imports[1][0].Path != "fmt" {
		t.Error("clone shares imports")
	}
	if c.Equal(d) {
		t.Error("Equal should see the mutation")
	}
}
