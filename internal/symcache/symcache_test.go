package symcache

import (
	"reflect"
	"sync"
	"testing"

	"github.com/DeusData/codebase-index/internal/types"
)

func sym(id types.SymbolID, name string, file types.FileID, module string, vis types.Visibility, language types.LanguageID) types.Symbol {
	return types.Symbol{
		ID:         id,
		Name:       name,
		Kind:       types.KindFunction,
		FileID:     file,
		ModulePath: module,
		Visibility: vis,
		Language:   language,
	}
}

func TestInsertKeepsCandidatesSorted(t *testing.T) {
	c := New()
	for _, id := range []types.SymbolID{9, 3, 7, 1} {
		c.Insert(sym(id, "run", 1, "", types.Public, "go"))
	}
	want := []types.SymbolID{1, 3, 7, 9}
	if got := c.Candidates("run"); !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
	if got := c.SymbolsInFile(1); !reflect.DeepEqual(got, want) {
		t.Errorf("SymbolsInFile = %v, want %v", got, want)
	}
	if c.Len() != 4 || c.UniqueNames() != 1 || c.FileCount() != 1 {
		t.Errorf("counts = %d/%d/%d", c.Len(), c.UniqueNames(), c.FileCount())
	}
}

func TestInsertReplacesExistingID(t *testing.T) {
	c := New()
	c.Insert(sym(1, "old", 1, "", types.Public, "go"))
	c.Insert(sym(1, "new", 2, "", types.Public, "go"))
	if len(c.Candidates("old")) != 0 || len(c.SymbolsInFile(1)) != 0 {
		t.Error("stale index entries remain after replace")
	}
	if s, ok := c.Get(1); !ok || s.Name != "new" {
		t.Errorf("Get(1) = %+v, %v", s, ok)
	}
}

func TestRemoveFile(t *testing.T) {
	c := New()
	c.Insert(sym(1, "a", 1, "", types.Public, "go"))
	c.Insert(sym(2, "a", 2, "", types.Public, "go"))
	c.Insert(sym(3, "b", 1, "", types.Public, "go"))
	c.RemoveFile(1)
	if got := c.Candidates("a"); !reflect.DeepEqual(got, []types.SymbolID{2}) {
		t.Errorf("Candidates(a) = %v", got)
	}
	if _, ok := c.Get(3); ok {
		t.Error("symbol 3 still cached")
	}
	if c.UniqueNames() != 1 {
		t.Errorf("UniqueNames = %d, want 1", c.UniqueNames())
	}
}

func TestResolveNotFound(t *testing.T) {
	c := New()
	c.Insert(sym(1, "a", 1, "", types.Public, "go"))
	if r := c.Resolve("missing", types.CallerFromFile(1, "go"), nil, nil); r.Outcome != NotFound {
		t.Errorf("Resolve(missing) = %+v", r)
	}
}

func TestResolveLocalWins(t *testing.T) {
	c := New()
	c.Insert(sym(1, "helper", 2, "b", types.Public, "rust"))
	c.Insert(sym(2, "helper", 1, "a", types.Private, "rust"))
	r := c.Resolve("helper", types.CallerFromFile(1, "rust"), nil, nil)
	if r.Outcome != Found || r.ID != 2 {
		t.Errorf("Resolve = %+v, want local id 2", r)
	}
}

func TestResolveSeveralLocalsAreAmbiguous(t *testing.T) {
	c := New()
	c.Insert(sym(4, "helper", 1, "", types.Private, "rust"))
	c.Insert(sym(2, "helper", 1, "", types.Private, "rust"))
	r := c.Resolve("helper", types.CallerFromFile(1, "rust"), nil, nil)
	if r.Outcome != Ambiguous || !reflect.DeepEqual(r.Candidates, []types.SymbolID{2, 4}) {
		t.Errorf("Resolve = %+v", r)
	}
}

func TestResolveThroughImport(t *testing.T) {
	c := New()
	c.Insert(sym(1, "helper", 2, "crate::mod_a", types.Public, "rust"))
	c.Insert(sym(2, "helper", 3, "crate::mod_b", types.Public, "rust"))
	imports := []types.Import{{Path: "crate::mod_b::helper", FileID: 1}}
	r := c.Resolve("helper", types.CallerFromFile(1, "rust"), nil, imports)
	if r.Outcome != Found || r.ID != 2 {
		t.Errorf("Resolve = %+v, want imported id 2", r)
	}
}

func TestResolveImportPrefersLongestModule(t *testing.T) {
	c := New()
	c.Insert(sym(1, "helper", 2, "crate", types.Public, "rust"))
	c.Insert(sym(2, "helper", 3, "crate::mod_a", types.Public, "rust"))
	imports := []types.Import{{Path: "crate::mod_a::helper", FileID: 1}}
	r := c.Resolve("helper", types.CallerFromFile(1, "rust"), nil, imports)
	if r.Outcome != Found || r.ID != 2 {
		t.Errorf("Resolve = %+v, want crate::mod_a id 2", r)
	}
}

func TestResolveWithMatcher(t *testing.T) {
	c := New()
	c.Insert(sym(1, "helper", 2, "aaa/util", types.Public, "typescript"))
	c.Insert(sym(2, "helper", 3, "src/mod_a", types.Public, "typescript"))
	imports := []types.Import{{Path: "./mod_a", Name: "helper", FileID: 1}}
	match := func(importPath, modulePath string) bool {
		return importPath == "./mod_a" && modulePath == "src/mod_a"
	}
	caller := types.CallerFromFile(1, "typescript")
	if r := c.ResolveWith("helper", caller, nil, imports, match); r.Outcome != Found || r.ID != 2 {
		t.Errorf("ResolveWith = %+v, want id 2", r)
	}
	// Without the rule nothing ties the import to either module.
	if r := c.Resolve("helper", caller, nil, imports); r.Outcome != Ambiguous {
		t.Errorf("Resolve = %+v, want ambiguous", r)
	}
}

func TestResolveAliasedImport(t *testing.T) {
	c := New()
	c.Insert(sym(1, "connect", 2, "crate::net::tcp", types.Public, "rust"))
	imports := []types.Import{{Path: "crate::net::tcp::connect", Alias: "dial", FileID: 1}}
	if r := c.Resolve("dial", types.CallerFromFile(1, "rust"), nil, imports); r.Outcome != Found || r.ID != 1 {
		t.Errorf("Resolve(dial) = %+v, want id 1", r)
	}
}

func TestImportedName(t *testing.T) {
	tests := []struct {
		name   string
		imp    types.Import
		ref    string
		want   string
		wantOK bool
	}{
		{"path", types.Import{Path: "crate::a::helper"}, "helper", "helper", true},
		{"path other", types.Import{Path: "crate::a::helper"}, "other", "", false},
		{"alias", types.Import{Path: "crate::a::helper", Alias: "h"}, "h", "helper", true},
		{"alias hides original", types.Import{Path: "crate::a::helper", Alias: "h"}, "helper", "", false},
		{"named", types.Import{Path: "./a", Name: "helper"}, "helper", "helper", true},
		{"named renamed", types.Import{Path: "./a", Name: "helper", Alias: "h"}, "h", "helper", true},
		{"default", types.Import{Path: "./a", Name: "default", Alias: "render"}, "render", "render", true},
		{"glob", types.Import{Path: "crate::a::*", IsGlob: true}, "helper", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := importedName(tt.imp, tt.ref)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("importedName = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveVisibility(t *testing.T) {
	c := New()
	c.Insert(sym(1, "run", 2, "pkg/a", types.Module, "go"))
	c.Insert(sym(2, "run", 3, "pkg/b", types.Public, "go"))
	c.Insert(sym(3, "run", 4, "pkg/c", types.Module, "go"))

	caller := types.CallerContext{FileID: 9, ModulePath: "pkg/c", Language: "go"}
	r := c.Resolve("run", caller, nil, nil)
	if r.Outcome != Ambiguous || !reflect.DeepEqual(r.Candidates, []types.SymbolID{2, 3}) {
		t.Errorf("Resolve = %+v, want ambiguous [2 3]", r)
	}

	outsider := types.CallerContext{FileID: 9, ModulePath: "other", Language: "go"}
	if r := c.Resolve("run", outsider, nil, nil); r.Outcome != Found || r.ID != 2 {
		t.Errorf("Resolve from outside = %+v, want public id 2", r)
	}
}

func TestResolveFallsBackAcrossLanguages(t *testing.T) {
	c := New()
	c.Insert(sym(1, "render", 2, "ui", types.Public, "typescript"))
	c.Insert(sym(2, "render", 3, "ui", types.Private, "python"))
	r := c.Resolve("render", types.CallerFromFile(1, "go"), nil, nil)
	if r.Outcome != Found || r.ID != 1 {
		t.Errorf("Resolve = %+v, want visible id 1", r)
	}
}

func TestResolveHiddenIsNotFound(t *testing.T) {
	c := New()
	c.Insert(sym(1, "secret", 2, "a", types.Private, "rust"))
	if r := c.Resolve("secret", types.CallerFromFile(1, "rust"), nil, nil); r.Outcome != NotFound {
		t.Errorf("Resolve = %+v, want not found", r)
	}
}

func TestLastSegment(t *testing.T) {
	tests := map[string]string{
		"crate::mod_a::helper": "helper",
		"os.path":              "path",
		"./util/helper":        "helper",
		"App\\Models\\User":    "User",
		"helper":               "helper",
		"pkg/":                 "pkg",
	}
	for in, want := range tests {
		if got := LastSegment(in); got != want {
			t.Errorf("LastSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConcurrentReaders(t *testing.T) {
	c := New()
	for i := 1; i <= 100; i++ {
		c.Insert(sym(types.SymbolID(i), "f", types.FileID(i%5+1), "", types.Public, "go"))
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Resolve("f", types.CallerFromFile(types.FileID(i%5+1), "go"), nil, nil)
			}
		}()
	}
	wg.Wait()
}
