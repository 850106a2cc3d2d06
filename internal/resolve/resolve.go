// Package resolve turns name references into symbol identities.
//
// Resolution runs in two ordered passes over a batch. Pass 1 resolves only
// defines relationships and records which type defines which member. Pass 2
// resolves everything else and uses those facts to narrow method calls whose
// receiver type is known.
package resolve

import (
	"context"
	"log/slog"
	"strings"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/symcache"
	"github.com/DeusData/codebase-index/internal/traits"
	"github.com/DeusData/codebase-index/internal/types"
)

// Stats counts resolution outcomes. Failures are counted, never raised.
type Stats struct {
	TotalProcessed  int `json:"total_processed"`
	Resolved        int `json:"resolved"`
	NoCandidates    int `json:"unresolved_no_candidates"`
	Ambiguous       int `json:"unresolved_ambiguous"`
	MissingOwner    int `json:"unresolved_missing_owner"`
	DefinesResolved int `json:"defines_resolved"`
	CallsResolved   int `json:"calls_resolved"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.TotalProcessed += o.TotalProcessed
	s.Resolved += o.Resolved
	s.NoCandidates += o.NoCandidates
	s.Ambiguous += o.Ambiguous
	s.MissingOwner += o.MissingOwner
	s.DefinesResolved += o.DefinesResolved
	s.CallsResolved += o.CallsResolved
}

// Engine resolves relationships against a symbol cache. It is not safe for
// concurrent use; the cache and trait resolver it reads are.
type Engine struct {
	cache     *symcache.Cache
	traits    *traits.Resolver
	behaviors map[types.LanguageID]lang.Behavior

	// definers maps a member to the symbols that define it, from pass 1.
	definers map[types.SymbolID][]types.SymbolID
}

// New creates an engine. behaviors may be nil or incomplete; languages
// without a behavior fall back to naive import matching.
func New(cache *symcache.Cache, tr *traits.Resolver, behaviors map[types.LanguageID]lang.Behavior) *Engine {
	if tr == nil {
		tr = traits.New()
	}
	return &Engine{
		cache:     cache,
		traits:    tr,
		behaviors: behaviors,
		definers:  make(map[types.SymbolID][]types.SymbolID),
	}
}

// Run resolves every context in two passes and returns the resolved
// relationships in pass order, then context order, then input order.
func (e *Engine) Run(ctx context.Context, contexts []*types.ResolutionContext) ([]types.Relationship, Stats, error) {
	var (
		out   []types.Relationship
		total Stats
	)
	for pass, wantDefines := range []bool{true, false} {
		var passStats Stats
		for _, rc := range contexts {
			if err := ctx.Err(); err != nil {
				return nil, total, err
			}
			rels, st := e.resolveContext(rc, func(k types.RelationKind) bool {
				return (k == types.Defines) == wantDefines
			})
			out = append(out, rels...)
			passStats.Add(st)
		}
		slog.Info("resolve.pass", "pass", pass+1, "processed", passStats.TotalProcessed,
			"resolved", passStats.Resolved, "no_candidates", passStats.NoCandidates,
			"ambiguous", passStats.Ambiguous)
		total.Add(passStats)
	}
	return out, total, nil
}

// Resolve resolves every relationship of one context regardless of kind.
// Defines results are recorded for later narrowing.
func (e *Engine) Resolve(rc *types.ResolutionContext) ([]types.Relationship, Stats) {
	return e.resolveContext(rc, func(types.RelationKind) bool { return true })
}

func (e *Engine) resolveContext(rc *types.ResolutionContext, want func(types.RelationKind) bool) ([]types.Relationship, Stats) {
	var (
		out []types.Relationship
		st  Stats
	)
	for i := range rc.Unresolved {
		u := &rc.Unresolved[i]
		if !want(u.Kind) {
			continue
		}
		st.TotalProcessed++
		if !u.FromID.Valid() {
			st.MissingOwner++
			continue
		}
		rel, ok := e.resolveOne(u, rc)
		if !ok {
			if len(e.cache.Candidates(u.ToName)) == 0 {
				st.NoCandidates++
			} else {
				st.Ambiguous++
			}
			continue
		}
		st.Resolved++
		switch rel.Kind {
		case types.Defines:
			st.DefinesResolved++
			e.recordDefine(rel.FromID, rel.ToID)
		case types.Calls:
			st.CallsResolved++
		}
		out = append(out, rel)
	}
	return out, st
}

func (e *Engine) recordDefine(definer, member types.SymbolID) {
	for _, d := range e.definers[member] {
		if d == definer {
			return
		}
	}
	e.definers[member] = append(e.definers[member], definer)
}

// Definers returns the symbols recorded as defining member.
func (e *Engine) Definers(member types.SymbolID) []types.SymbolID {
	return append([]types.SymbolID(nil), e.definers[member]...)
}

// Reset forgets the recorded defines facts.
func (e *Engine) Reset() {
	clear(e.definers)
}

func (e *Engine) callerContext(fromID types.SymbolID, rc *types.ResolutionContext) types.CallerContext {
	if s, ok := e.cache.Get(fromID); ok {
		language := s.Language
		if language == "" {
			language = rc.Language
		}
		return types.CallerContext{FileID: s.FileID, ModulePath: s.ModulePath, Language: language}
	}
	return types.CallerFromFile(rc.FileID, rc.Language)
}

func (e *Engine) resolveOne(u *types.UnresolvedRelationship, rc *types.ResolutionContext) (types.Relationship, bool) {
	caller := e.callerContext(u.FromID, rc)
	res := e.cache.ResolveWith(u.ToName, caller, u.ToRange, rc.Imports, e.importMatcher(rc))

	var to types.SymbolID
	switch res.Outcome {
	case symcache.Found:
		to = res.ID
	case symcache.Ambiguous:
		candidates := e.narrowByReceiver(res.Candidates, u)
		if len(candidates) == 1 {
			to = candidates[0]
			break
		}
		id, ok := e.disambiguate(candidates, u, rc)
		if !ok {
			return types.Relationship{}, false
		}
		to = id
	default:
		return types.Relationship{}, false
	}

	rel := types.Relationship{FromID: u.FromID, ToID: to, Kind: u.Kind}
	if u.Metadata != nil {
		m := *u.Metadata
		rel.Metadata = &m
	}
	return rel, true
}

// narrowByReceiver keeps the candidates defined by the call's receiver
// type. When that type defines none of them, the candidates defined by the
// trait it gets the method from are kept instead. The input is returned
// when nothing narrows.
func (e *Engine) narrowByReceiver(candidates []types.SymbolID, u *types.UnresolvedRelationship) []types.SymbolID {
	if u.Kind != types.Calls || u.Metadata == nil || u.Metadata.ReceiverType == "" {
		return candidates
	}
	recvType := u.Metadata.ReceiverType
	if narrowed := e.definedBy(candidates, recvType); len(narrowed) > 0 {
		return narrowed
	}
	if trait, ok := e.traits.ResolveMethodTrait(recvType, u.ToName); ok {
		if narrowed := e.definedBy(candidates, trait); len(narrowed) > 0 {
			return narrowed
		}
	}
	return candidates
}

func (e *Engine) definedBy(candidates []types.SymbolID, typeName string) []types.SymbolID {
	var out []types.SymbolID
	for _, id := range candidates {
		for _, d := range e.definers[id] {
			if s, ok := e.cache.Get(d); ok && s.Name == typeName {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// disambiguate picks one of several candidates. The first non-empty bucket
// wins:
//  1. Local: same file as the reference, shadowing decides between several
//  2. Imported: reachable through the file's imports
//  3. Same language as the reference
//  4. The first candidate
func (e *Engine) disambiguate(candidates []types.SymbolID, u *types.UnresolvedRelationship, rc *types.ResolutionContext) (types.SymbolID, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	var local, imported, sameLanguage []types.SymbolID
	importing := e.importingModule(rc)
	for _, id := range candidates {
		s, ok := e.cache.Get(id)
		if !ok {
			continue
		}
		switch {
		case s.FileID == rc.FileID:
			local = append(local, id)
		case e.isImported(s, rc, importing):
			imported = append(imported, id)
		case s.Language == rc.Language:
			sameLanguage = append(sameLanguage, id)
		}
	}

	switch {
	case len(local) == 1:
		return local[0], true
	case len(local) > 1:
		if u.ToRange != nil {
			return e.closestByRange(local, *u.ToRange, rc.FileID), true
		}
		return local[0], true
	case len(imported) > 0:
		return imported[0], true
	case len(sameLanguage) > 0:
		return sameLanguage[0], true
	}
	return candidates[0], true
}

// closestByRange applies lexical shadowing: of the definitions at or before
// the reference line, the latest one wins. With none before the reference
// the first candidate is used.
func (e *Engine) closestByRange(candidates []types.SymbolID, ref types.Range, fileID types.FileID) types.SymbolID {
	var (
		best     types.SymbolID
		bestLine uint32
	)
	for _, id := range candidates {
		s, ok := e.cache.Get(id)
		if !ok || s.FileID != fileID {
			continue
		}
		line := s.Range.StartLine
		if line > ref.StartLine {
			continue
		}
		if !best.Valid() || line > bestLine {
			best, bestLine = id, line
		}
	}
	if best.Valid() {
		return best
	}
	return candidates[0]
}

// importMatcher applies the language's import rule for rc, or returns nil
// when the language has none.
func (e *Engine) importMatcher(rc *types.ResolutionContext) symcache.ImportMatcher {
	b, ok := e.behaviors[rc.Language]
	if !ok || b == nil {
		return nil
	}
	importing := e.importingModule(rc)
	return func(importPath, modulePath string) bool {
		return b.ImportMatchesSymbol(importPath, modulePath, importing)
	}
}

// importingModule is the module path of the file being resolved, taken
// from its first local symbol.
func (e *Engine) importingModule(rc *types.ResolutionContext) string {
	for _, id := range rc.LocalSymbols {
		if s, ok := e.cache.Get(id); ok && s.ModulePath != "" {
			return s.ModulePath
		}
	}
	return rc.Scope.ModulePath
}

func (e *Engine) isImported(s types.Symbol, rc *types.ResolutionContext, importing string) bool {
	if b, ok := e.behaviors[rc.Language]; ok && b != nil {
		for _, imp := range rc.Imports {
			if b.ImportMatchesSymbol(imp.Path, s.ModulePath, importing) {
				return true
			}
		}
		return false
	}
	for _, imp := range rc.Imports {
		if strings.HasSuffix(imp.Path, s.Name) {
			return true
		}
		if imp.Alias != "" && imp.Alias == s.Name {
			return true
		}
		if imp.FileID == s.FileID {
			return true
		}
	}
	return false
}
