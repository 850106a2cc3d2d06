package pipeline

import (
	"log/slog"
	"slices"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/types"
)

// traitFacts accumulates trait knowledge before it is handed to the
// resolver in a deterministic order.
type traitFacts struct {
	methods     map[string][]string // trait -> declared methods
	typeMethods map[string][]string // Go type -> methods, for structural matching
	typeFiles   map[string]types.FileID
}

func (f *traitFacts) addMethod(m map[string][]string, owner, method string) {
	if !slices.Contains(m[owner], method) {
		m[owner] = append(m[owner], method)
	}
}

// populateTraits rebuilds the trait resolver from the relationships already
// in the index and the raw relationships of the batch, then infers Go
// interface satisfaction. Inferred pairs whose type lives in the batch are
// queued as implements relationships for RESOLVE.
func (p *Pipeline) populateTraits(batch *collected) {
	p.traits.Clear()
	facts := &traitFacts{
		methods:     make(map[string][]string),
		typeMethods: make(map[string][]string),
		typeFiles:   make(map[string]types.FileID),
	}

	for _, r := range p.index.Relationships {
		from, ok := p.cache.Get(r.FromID)
		if !ok {
			continue
		}
		to, ok := p.cache.Get(r.ToID)
		if !ok {
			continue
		}
		p.traitFact(facts, from, r.Kind, to.Name, r.Metadata)
	}
	for _, rc := range batch.contexts {
		for _, u := range rc.Unresolved {
			from, ok := p.cache.Get(u.FromID)
			if !ok {
				continue
			}
			p.traitFact(facts, from, u.Kind, u.ToName, u.Metadata)
		}
	}

	for _, trait := range sortedNames(facts.methods) {
		p.traits.AddTraitMethods(trait, facts.methods[trait])
	}

	impls := p.traits.InferImplementations(facts.typeMethods, facts.typeFiles)
	if len(impls) == 0 {
		return
	}
	byFile := make(map[types.FileID]*types.ResolutionContext, len(batch.contexts))
	for _, rc := range batch.contexts {
		byFile[rc.FileID] = rc
	}
	queued := 0
	for _, impl := range impls {
		rc, ok := byFile[facts.typeFiles[impl.Type]]
		if !ok {
			continue
		}
		owner := p.typeSymbol(rc, impl.Type)
		if !owner.Valid() {
			continue
		}
		rc.Unresolved = append(rc.Unresolved, types.UnresolvedRelationship{
			FromID:   owner,
			FromName: impl.Type,
			ToName:   impl.Trait,
			FileID:   rc.FileID,
			Kind:     types.Implements,
		})
		queued++
	}
	slog.Info("implements.inferred", "pairs", len(impls), "queued", queued)
}

func (p *Pipeline) traitFact(f *traitFacts, from types.Symbol, kind types.RelationKind, to string, meta *types.RelationshipMetadata) {
	switch kind {
	case types.Implements:
		p.traits.AddTraitImpl(from.Name, to, from.FileID)
	case types.Defines:
		switch {
		case from.Kind == types.KindTrait || from.Kind == types.KindInterface:
			f.addMethod(f.methods, from.Name, to)
		case meta != nil && meta.Trait != "":
			p.traits.AddTypeMethod(from.Name, to, meta.Trait)
		case from.Language == lang.Go && from.Kind.IsType():
			f.addMethod(f.typeMethods, from.Name, to)
			if _, ok := f.typeFiles[from.Name]; !ok {
				f.typeFiles[from.Name] = from.FileID
			}
		}
	}
}

// typeSymbol finds the type called name among the file's symbols.
func (p *Pipeline) typeSymbol(rc *types.ResolutionContext, name string) types.SymbolID {
	for _, id := range rc.LocalSymbols {
		if s, ok := p.cache.Get(id); ok && s.Name == name && s.Kind.IsType() {
			return id
		}
	}
	return 0
}

func sortedNames(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
