package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/symcache"
	"github.com/DeusData/codebase-index/internal/traits"
	"github.com/DeusData/codebase-index/internal/types"
)

func def(id types.SymbolID, name string, kind types.SymbolKind, file types.FileID, line uint32, module string) types.Symbol {
	return types.Symbol{
		ID:         id,
		Name:       name,
		Kind:       kind,
		FileID:     file,
		Range:      types.NewRange(line, 0, line+2, 1),
		Visibility: types.Public,
		ModulePath: module,
		Language:   lang.Rust,
	}
}

func newCache(symbols ...types.Symbol) *symcache.Cache {
	c := symcache.New()
	for _, s := range symbols {
		c.Insert(s)
	}
	return c
}

func rustBehaviors() map[types.LanguageID]lang.Behavior {
	return map[types.LanguageID]lang.Behavior{lang.Rust: lang.DefaultRegistry().Behavior(lang.Rust)}
}

func call(from types.SymbolID, fromName, to string, file types.FileID, line uint32) types.UnresolvedRelationship {
	r := types.NewRange(line, 4, line, 12)
	return types.UnresolvedRelationship{
		FromID:   from,
		FromName: fromName,
		ToName:   to,
		FileID:   file,
		Kind:     types.Calls,
		Metadata: &types.RelationshipMetadata{Line: line, Column: 4},
		ToRange:  &r,
	}
}

func TestImportedHelperResolves(t *testing.T) {
	cache := newCache(
		def(1, "main", types.KindFunction, 1, 0, "crate::caller"),
		def(2, "helper", types.KindFunction, 2, 0, "crate::mod_a"),
	)
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:       1,
		Language:     lang.Rust,
		Imports:      []types.Import{{Path: "crate::mod_a::helper", FileID: 1}},
		LocalSymbols: []types.SymbolID{1},
		Unresolved:   []types.UnresolvedRelationship{call(1, "main", "helper", 1, 1)},
	}
	rels, st := e.Resolve(rc)
	if len(rels) != 1 || rels[0].FromID != 1 || rels[0].ToID != 2 || rels[0].Kind != types.Calls {
		t.Fatalf("rels = %+v", rels)
	}
	if st.CallsResolved != 1 || st.Resolved != 1 || st.TotalProcessed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestImportedBucketBeatsLowerID(t *testing.T) {
	cache := newCache(
		def(1, "helper", types.KindFunction, 3, 0, "crate::mod_b"),
		def(2, "helper", types.KindFunction, 2, 0, "crate::mod_a"),
		def(3, "main", types.KindFunction, 1, 0, "crate::caller"),
	)
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:       1,
		Language:     lang.Rust,
		Imports:      []types.Import{{Path: "crate::mod_a::*", IsGlob: true, FileID: 1}},
		LocalSymbols: []types.SymbolID{3},
		Unresolved:   []types.UnresolvedRelationship{call(3, "main", "helper", 1, 1)},
	}
	rels, _ := e.Resolve(rc)
	if len(rels) != 1 || rels[0].ToID != 2 {
		t.Fatalf("expected glob-imported helper 2, got %+v", rels)
	}
}

func TestRelativeImportUsesImportingModule(t *testing.T) {
	cache := newCache(
		def(1, "helper", types.KindFunction, 3, 0, "crate::net::other"),
		def(2, "helper", types.KindFunction, 2, 0, "crate::net::util"),
		def(3, "main", types.KindFunction, 1, 0, "crate::net::caller"),
	)
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:       1,
		Language:     lang.Rust,
		Imports:      []types.Import{{Path: "super::util::*", IsGlob: true, FileID: 1}},
		LocalSymbols: []types.SymbolID{3},
		Unresolved:   []types.UnresolvedRelationship{call(3, "main", "helper", 1, 1)},
	}
	rels, _ := e.Resolve(rc)
	if len(rels) != 1 || rels[0].ToID != 2 {
		t.Fatalf("expected super::util helper 2, got %+v", rels)
	}
}

func TestLocalShadowing(t *testing.T) {
	cache := newCache(
		def(1, "main", types.KindFunction, 1, 0, "crate"),
		def(2, "helper", types.KindFunction, 1, 4, "crate"),
		def(3, "helper", types.KindFunction, 1, 14, "crate"),
	)
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:       1,
		Language:     lang.Rust,
		LocalSymbols: []types.SymbolID{1, 2, 3},
		Unresolved: []types.UnresolvedRelationship{
			call(1, "main", "helper", 1, 11),
			call(1, "main", "helper", 1, 24),
			call(1, "main", "helper", 1, 2),
		},
	}
	rels, _ := e.Resolve(rc)
	if len(rels) != 3 {
		t.Fatalf("expected 3 relationships, got %+v", rels)
	}
	want := []types.SymbolID{2, 3, 2}
	for i, r := range rels {
		if r.ToID != want[i] {
			t.Errorf("call %d resolved to %d, want %d", i, r.ToID, want[i])
		}
	}
}

func TestNoCandidatesIsCounted(t *testing.T) {
	cache := newCache(def(1, "main", types.KindFunction, 1, 0, "crate"))
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:     1,
		Language:   lang.Rust,
		Unresolved: []types.UnresolvedRelationship{call(1, "main", "nowhere", 1, 1)},
	}
	rels, st := e.Resolve(rc)
	if len(rels) != 0 {
		t.Errorf("expected nothing resolved, got %+v", rels)
	}
	if st.NoCandidates != 1 || st.Ambiguous != 0 || st.TotalProcessed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestMissingOwnerIsCounted(t *testing.T) {
	cache := newCache(def(1, "helper", types.KindFunction, 1, 0, "crate"))
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:     1,
		Language:   lang.Rust,
		Unresolved: []types.UnresolvedRelationship{call(0, "top", "helper", 1, 1)},
	}
	rels, st := e.Resolve(rc)
	if len(rels) != 0 || st.MissingOwner != 1 {
		t.Errorf("rels = %+v stats = %+v", rels, st)
	}
}

func TestHiddenCandidateCountsAsAmbiguous(t *testing.T) {
	cache := newCache(def(1, "main", types.KindFunction, 1, 0, "crate::a"))
	hidden := def(2, "secret", types.KindFunction, 2, 0, "crate::b")
	hidden.Visibility = types.Private
	cache.Insert(hidden)
	e := New(cache, nil, rustBehaviors())
	rc := &types.ResolutionContext{
		FileID:     1,
		Language:   lang.Rust,
		Unresolved: []types.UnresolvedRelationship{call(1, "main", "secret", 1, 1)},
	}
	_, st := e.Resolve(rc)
	if st.Ambiguous != 1 || st.NoCandidates != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func definesRel(from types.SymbolID, fromName, to string, file types.FileID, line uint32) types.UnresolvedRelationship {
	r := types.NewRange(line, 0, line+2, 1)
	return types.UnresolvedRelationship{FromID: from, FromName: fromName, ToName: to, FileID: file, Kind: types.Defines, ToRange: &r}
}

func methodCall(from types.SymbolID, fromName, to, receiverType string, file types.FileID, line uint32) types.UnresolvedRelationship {
	u := call(from, fromName, to, file, line)
	u.Metadata.Receiver = "s"
	u.Metadata.ReceiverType = receiverType
	return u
}

// shapes: Circle and Square in their own files, each defining area; a
// third file calls area on a Square.
func shapesFixture() (*symcache.Cache, []*types.ResolutionContext) {
	cache := newCache(
		def(1, "Circle", types.KindStruct, 1, 0, "crate::circle"),
		def(2, "area", types.KindMethod, 1, 5, "crate::circle"),
		def(3, "Square", types.KindStruct, 2, 0, "crate::square"),
		def(4, "area", types.KindMethod, 2, 5, "crate::square"),
		def(5, "describe", types.KindFunction, 3, 0, "crate::report"),
	)
	contexts := []*types.ResolutionContext{
		{
			FileID: 3, Language: lang.Rust, LocalSymbols: []types.SymbolID{5},
			Unresolved: []types.UnresolvedRelationship{methodCall(5, "describe", "area", "Square", 3, 2)},
		},
		{
			FileID: 1, Language: lang.Rust, LocalSymbols: []types.SymbolID{1, 2},
			Unresolved: []types.UnresolvedRelationship{definesRel(1, "Circle", "area", 1, 5)},
		},
		{
			FileID: 2, Language: lang.Rust, LocalSymbols: []types.SymbolID{3, 4},
			Unresolved: []types.UnresolvedRelationship{definesRel(3, "Square", "area", 2, 5)},
		},
	}
	return cache, contexts
}

func TestTwoPassNarrowsByReceiverType(t *testing.T) {
	cache, contexts := shapesFixture()
	e := New(cache, nil, rustBehaviors())
	rels, st, err := e.Run(context.Background(), contexts)
	if err != nil {
		t.Fatal(err)
	}
	if st.DefinesResolved != 2 || st.CallsResolved != 1 {
		t.Fatalf("stats = %+v", st)
	}
	// Pass 1 output comes first.
	for _, r := range rels[:2] {
		if r.Kind != types.Defines {
			t.Errorf("pass 1 emitted %s", r.Kind)
		}
	}
	last := rels[len(rels)-1]
	if last.Kind != types.Calls || last.ToID != 4 {
		t.Errorf("s.area() resolved to %d, want Square's area 4", last.ToID)
	}
	if got := e.Definers(4); !reflect.DeepEqual(got, []types.SymbolID{3}) {
		t.Errorf("Definers(4) = %v", got)
	}
}

func TestSinglePassWithoutDefinesFallsBackToFirst(t *testing.T) {
	cache, contexts := shapesFixture()
	e := New(cache, nil, rustBehaviors())
	rels, _ := e.Resolve(contexts[0])
	if len(rels) != 1 || rels[0].ToID != 2 {
		t.Fatalf("without defines facts expected first candidate 2, got %+v", rels)
	}
}

func TestNarrowingThroughTrait(t *testing.T) {
	cache := newCache(
		def(1, "Circle", types.KindStruct, 1, 0, "crate::circle"),
		def(2, "area", types.KindMethod, 1, 5, "crate::circle"),
		def(3, "Shape", types.KindTrait, 2, 0, "crate::shape"),
		def(4, "area", types.KindMethod, 2, 1, "crate::shape"),
		def(5, "describe", types.KindFunction, 3, 0, "crate::report"),
	)
	tr := traits.New()
	tr.AddTraitMethods("Shape", []string{"area"})
	tr.AddTraitImpl("Square", "Shape", 4)
	e := New(cache, tr, rustBehaviors())
	contexts := []*types.ResolutionContext{
		{FileID: 1, Language: lang.Rust, Unresolved: []types.UnresolvedRelationship{definesRel(1, "Circle", "area", 1, 5)}},
		{FileID: 2, Language: lang.Rust, Unresolved: []types.UnresolvedRelationship{definesRel(3, "Shape", "area", 2, 1)}},
		{FileID: 3, Language: lang.Rust, Unresolved: []types.UnresolvedRelationship{methodCall(5, "describe", "area", "Square", 3, 2)}},
	}
	rels, _, err := e.Run(context.Background(), contexts)
	if err != nil {
		t.Fatal(err)
	}
	last := rels[len(rels)-1]
	if last.Kind != types.Calls || last.ToID != 4 {
		t.Errorf("Square.area() resolved to %d, want trait declaration 4", last.ToID)
	}
}

func TestResolutionIsDeterministic(t *testing.T) {
	var first []types.Relationship
	for i := 0; i < 5; i++ {
		cache, contexts := shapesFixture()
		rels, _, err := New(cache, nil, rustBehaviors()).Run(context.Background(), contexts)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			first = rels
			continue
		}
		if !reflect.DeepEqual(rels, first) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, rels, first)
		}
	}
}

func TestNaiveImportFallback(t *testing.T) {
	cache := newCache(
		def(1, "helper", types.KindFunction, 3, 0, "x"),
		def(2, "helper", types.KindFunction, 2, 0, "y"),
		def(3, "main", types.KindFunction, 1, 0, "z"),
	)
	e := New(cache, nil, nil)
	rc := &types.ResolutionContext{
		FileID:     1,
		Language:   lang.Rust,
		Imports:    []types.Import{{Path: "q/helper", FileID: 2}},
		Unresolved: []types.UnresolvedRelationship{call(3, "main", "helper", 1, 1)},
	}
	rels, _ := e.Resolve(rc)
	// Both paths end with "helper"; the lower id wins the imported bucket.
	if len(rels) != 1 || rels[0].ToID != 1 {
		t.Fatalf("rels = %+v", rels)
	}
}

func TestMetadataIsCopied(t *testing.T) {
	cache := newCache(
		def(1, "main", types.KindFunction, 1, 0, "crate"),
		def(2, "helper", types.KindFunction, 1, 5, "crate"),
	)
	e := New(cache, nil, rustBehaviors())
	u := call(1, "main", "helper", 1, 1)
	rc := &types.ResolutionContext{FileID: 1, Language: lang.Rust, Unresolved: []types.UnresolvedRelationship{u}}
	rels, _ := e.Resolve(rc)
	if len(rels) != 1 || rels[0].Metadata == nil || rels[0].Metadata == u.Metadata || rels[0].Metadata.Line != 1 {
		t.Fatalf("rels = %+v", rels)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	cache, contexts := shapesFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(cache, nil, rustBehaviors()).Run(ctx, contexts)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStatsAdd(t *testing.T) {
	a := Stats{TotalProcessed: 2, Resolved: 1, NoCandidates: 1, CallsResolved: 1}
	a.Add(Stats{TotalProcessed: 3, Resolved: 2, Ambiguous: 1, DefinesResolved: 2})
	want := Stats{TotalProcessed: 5, Resolved: 3, NoCandidates: 1, Ambiguous: 1, DefinesResolved: 2, CallsResolved: 1}
	if a != want {
		t.Errorf("Add = %+v, want %+v", a, want)
	}
}

func inLanguage(s types.Symbol, language types.LanguageID) types.Symbol {
	s.Language = language
	return s
}

func behaviorsFor(languages ...types.LanguageID) map[types.LanguageID]lang.Behavior {
	out := make(map[types.LanguageID]lang.Behavior, len(languages))
	for _, l := range languages {
		out[l] = lang.DefaultRegistry().Behavior(l)
	}
	return out
}

// Each case has a same-named decoy at a lower id in a module the import
// does not name.
func TestImportBeatsDecoys(t *testing.T) {
	tests := []struct {
		name     string
		language types.LanguageID
		modules  [3]string // decoy, target, caller
		imp      types.Import
		ref      string
	}{
		{"rust crate root", lang.Rust, [3]string{"crate", "crate::mod_a", "crate::zcaller"},
			types.Import{Path: "crate::mod_a::helper"}, "helper"},
		{"rust alias", lang.Rust, [3]string{"crate", "crate::mod_a", "crate::zcaller"},
			types.Import{Path: "crate::mod_a::helper", Alias: "h"}, "h"},
		{"python package", lang.Python, [3]string{"pkg", "pkg.mod_a", "pkg.caller"},
			types.Import{Path: "pkg.mod_a.helper"}, "helper"},
		{"python relative", lang.Python, [3]string{"pkg", "pkg.mod_a", "pkg.caller"},
			types.Import{Path: ".mod_a.helper"}, "helper"},
		{"typescript named", lang.TypeScript, [3]string{"aaa/util", "src/mod_a", "src/caller"},
			types.Import{Path: "./mod_a", Name: "helper"}, "helper"},
		{"typescript renamed", lang.TypeScript, [3]string{"aaa/util", "src/mod_a", "src/caller"},
			types.Import{Path: "./mod_a", Name: "helper", Alias: "h"}, "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newCache(
				inLanguage(def(1, "helper", types.KindFunction, 2, 0, tt.modules[0]), tt.language),
				inLanguage(def(2, "helper", types.KindFunction, 3, 0, tt.modules[1]), tt.language),
				inLanguage(def(3, "main", types.KindFunction, 1, 0, tt.modules[2]), tt.language),
			)
			e := New(cache, nil, behaviorsFor(tt.language))
			imp := tt.imp
			imp.FileID = 1
			rc := &types.ResolutionContext{
				FileID:       1,
				Language:     tt.language,
				Imports:      []types.Import{imp},
				LocalSymbols: []types.SymbolID{3},
				Unresolved:   []types.UnresolvedRelationship{call(3, "main", tt.ref, 1, 1)},
			}
			rels, _ := e.Resolve(rc)
			if len(rels) != 1 || rels[0].ToID != 2 {
				t.Fatalf("rels = %+v, want helper 2", rels)
			}
		})
	}
}

// A named import binds only its own name; other symbols of the same name
// are not treated as imported.
func TestNamedImportDoesNotMatchByName(t *testing.T) {
	cache := newCache(
		inLanguage(def(1, "helper", types.KindFunction, 2, 0, "aaa/util"), lang.TypeScript),
		inLanguage(def(2, "helper", types.KindFunction, 3, 0, "bbb/util"), lang.TypeScript),
		inLanguage(def(3, "main", types.KindFunction, 1, 0, "src/caller"), lang.TypeScript),
	)
	e := New(cache, nil, behaviorsFor(lang.TypeScript))
	rc := &types.ResolutionContext{
		FileID:       1,
		Language:     lang.TypeScript,
		Imports:      []types.Import{{Path: "./mod_a", Name: "helper", FileID: 1}},
		LocalSymbols: []types.SymbolID{3},
	}
	s2, _ := cache.Get(2)
	if e.isImported(s2, rc, "src/caller") {
		t.Error("helper in bbb/util counted as imported from ./mod_a")
	}
}
