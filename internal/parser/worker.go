package parser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/DeusData/codebase-index/internal/lang"
	"github.com/DeusData/codebase-index/internal/types"
)

// ErrUnsupportedFileType is returned when no language claims a file's extension.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Worker parses files on behalf of a single goroutine. It creates one
// LanguageParser per language on first use and reuses it for every later
// file of that language. A Worker must not be shared between goroutines.
type Worker struct {
	registry *lang.Registry
	root     string
	parsers  map[lang.Language]LanguageParser
}

// NewWorker creates a worker resolving languages through registry. root is
// the project root used to derive module paths.
func NewWorker(registry *lang.Registry, root string) *Worker {
	return &Worker{
		registry: registry,
		root:     root,
		parsers:  make(map[lang.Language]LanguageParser),
	}
}

// Close releases every parser the worker created.
func (w *Worker) Close() {
	for l, p := range w.parsers {
		p.Close()
		delete(w.parsers, l)
	}
}

func (w *Worker) parserFor(spec *lang.LanguageSpec) (LanguageParser, error) {
	if p, ok := w.parsers[spec.Language]; ok {
		return p, nil
	}
	p, err := NewTreeSitterParser(spec)
	if err != nil {
		return nil, err
	}
	w.parsers[spec.Language] = p
	return p, nil
}

// ParseFile extracts identity-free records from one file.
func (w *Worker) ParseFile(fc types.FileContent) (*types.ParsedFile, error) {
	spec := w.registry.ForPath(fc.Path)
	if spec == nil {
		return nil, fmt.Errorf("%s: %w", fc.Path, ErrUnsupportedFileType)
	}
	p, err := w.parserFor(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fc.Path, err)
	}

	pf := &types.ParsedFile{
		Path:     fc.Path,
		RelPath:  fc.RelPath,
		Hash:     fc.Hash,
		Language: spec.Language,
	}
	if mp, ok := spec.Behavior.ModulePathFromFile(fc.Path, w.root); ok {
		pf.ModulePath = mp
	}

	if err := w.collect(p, fc.Content, pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fc.Path, err)
	}
	return pf, nil
}

func (w *Worker) collect(p LanguageParser, content []byte, pf *types.ParsedFile) error {
	symbols, err := p.Parse(content, 0)
	if err != nil {
		return err
	}
	pf.Symbols = make([]types.RawSymbol, 0, len(symbols))
	for _, s := range symbols {
		pf.Symbols = append(pf.Symbols, types.RawSymbol{
			Name:       s.Name,
			Kind:       s.Kind,
			Range:      s.Range,
			Signature:  s.Signature,
			Doc:        s.Doc,
			Visibility: s.Visibility,
			Scope:      s.Scope,
		})
	}

	imports, err := p.FindImports(content, 0)
	if err != nil {
		return err
	}
	for _, imp := range imports {
		if imp.Path == "" {
			continue
		}
		pf.Imports = append(pf.Imports, types.RawImport{
			Path:       imp.Path,
			Name:       imp.Name,
			Alias:      imp.Alias,
			IsGlob:     imp.IsGlob,
			IsTypeOnly: imp.IsTypeOnly,
		})
	}

	methodCalls, err := p.FindMethodCalls(content)
	if err != nil {
		return err
	}
	varTypes, err := p.FindVariableTypes(content)
	if err != nil {
		return err
	}
	seen := make(map[callKey]bool)
	for _, mc := range methodCalls {
		fromRange := mc.Range
		if mc.CallerRange != nil {
			fromRange = *mc.CallerRange
		}
		if mc.ReceiverType == "" {
			mc.ReceiverType = receiverType(varTypes, mc.Receiver, mc.Range, mc.CallerRange)
		}
		seen[callKey{mc.Caller, mc.Method, mc.Range.StartLine}] = true
		pf.Relationships = append(pf.Relationships, types.RawRelationship{
			FromName:  mc.Caller,
			FromRange: fromRange,
			ToName:    mc.Method,
			ToRange:   mc.Range,
			Kind:      types.Calls,
			Metadata: &types.RelationshipMetadata{
				Line:         mc.Range.StartLine,
				Column:       mc.Range.StartColumn,
				Receiver:     mc.Receiver,
				ReceiverType: mc.ReceiverType,
				IsStatic:     mc.IsStatic,
			},
		})
	}

	calls, err := p.FindCalls(content)
	if err != nil {
		return err
	}
	for _, c := range calls {
		key := callKey{c.Caller, c.Callee, c.Range.StartLine}
		if seen[key] {
			continue
		}
		seen[key] = true
		pf.Relationships = append(pf.Relationships, types.RawRelationship{
			FromName:  c.Caller,
			FromRange: c.CallerRange,
			ToName:    c.Callee,
			ToRange:   c.Range,
			Kind:      types.Calls,
			Metadata:  &types.RelationshipMetadata{Line: c.Range.StartLine, Column: c.Range.StartColumn},
		})
	}

	for _, step := range []struct {
		kind types.RelationKind
		find func([]byte) ([]Relation, error)
	}{
		{types.Implements, p.FindImplementations},
		{types.Extends, p.FindExtends},
		{types.Uses, p.FindUses},
		{types.Defines, p.FindDefines},
	} {
		rels, err := step.find(content)
		if err != nil {
			return err
		}
		for _, r := range rels {
			pf.Relationships = append(pf.Relationships, rawFromRelation(step.kind, r))
		}
	}
	return nil
}

type callKey struct {
	caller, callee string
	line           uint32
}

func rawFromRelation(kind types.RelationKind, r Relation) types.RawRelationship {
	raw := types.RawRelationship{
		FromName:  r.From,
		FromRange: r.Range,
		ToName:    r.To,
		ToRange:   r.Range,
		Kind:      kind,
	}
	if r.FromRange != nil {
		raw.FromRange = *r.FromRange
	}
	if r.Trait != "" {
		raw.Metadata = &types.RelationshipMetadata{Trait: r.Trait}
	}
	return raw
}

// receiverType returns the type of the latest declaration of receiver that
// precedes the call inside the calling function.
func receiverType(vars []VariableType, receiver string, call types.Range, caller *types.Range) string {
	var matches []VariableType
	for _, v := range vars {
		if v.Variable != receiver || v.Range.StartLine > call.StartLine {
			continue
		}
		if caller != nil && !caller.Contains(v.Range.StartLine, v.Range.StartColumn) {
			continue
		}
		matches = append(matches, v)
	}
	if len(matches) == 0 {
		return ""
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Range.StartLine < matches[j].Range.StartLine
	})
	return matches[len(matches)-1].Type
}
