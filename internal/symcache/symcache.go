// Package symcache holds the symbol lookup cache built during COLLECT and
// read during RESOLVE.
package symcache

import (
	"sort"
	"strings"
	"sync"

	"github.com/DeusData/codebase-index/internal/types"
)

// Outcome classifies a lookup.
type Outcome int

const (
	NotFound Outcome = iota
	Found
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Result is the answer to a name lookup. ID is set for Found, Candidates
// (ascending) for Ambiguous.
type Result struct {
	Outcome    Outcome
	ID         types.SymbolID
	Candidates []types.SymbolID
}

func found(id types.SymbolID) Result { return Result{Outcome: Found, ID: id} }

func pick(ids []types.SymbolID) Result {
	switch len(ids) {
	case 0:
		return Result{}
	case 1:
		return found(ids[0])
	default:
		return Result{Outcome: Ambiguous, Candidates: ids}
	}
}

// Cache indexes symbols by id, by name and by owning file. Candidate lists
// are kept sorted by ascending SymbolID. It is safe for concurrent readers.
type Cache struct {
	mu     sync.RWMutex
	byID   map[types.SymbolID]types.Symbol
	byName map[string][]types.SymbolID
	byFile map[types.FileID][]types.SymbolID
}

// New creates an empty cache.
func New() *Cache {
	return NewWithCapacity(0)
}

// NewWithCapacity creates an empty cache sized for n symbols.
func NewWithCapacity(n int) *Cache {
	return &Cache{
		byID:   make(map[types.SymbolID]types.Symbol, n),
		byName: make(map[string][]types.SymbolID, n/10),
		byFile: make(map[types.FileID][]types.SymbolID, n/50),
	}
}

// Insert adds s. Inserting an id twice replaces the stored symbol.
func (c *Cache) Insert(s types.Symbol) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.byID[s.ID]; ok {
		c.byName[old.Name] = without(c.byName[old.Name], s.ID)
		c.byFile[old.FileID] = without(c.byFile[old.FileID], s.ID)
	}
	c.byID[s.ID] = s
	c.byName[s.Name] = insertSorted(c.byName[s.Name], s.ID)
	c.byFile[s.FileID] = insertSorted(c.byFile[s.FileID], s.ID)
}

// RemoveFile drops every symbol owned by fileID.
func (c *Cache) RemoveFile(fileID types.FileID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.byFile[fileID] {
		s := c.byID[id]
		delete(c.byID, id)
		if ids := without(c.byName[s.Name], id); len(ids) > 0 {
			c.byName[s.Name] = ids
		} else {
			delete(c.byName, s.Name)
		}
	}
	delete(c.byFile, fileID)
}

func insertSorted(ids []types.SymbolID, id types.SymbolID) []types.SymbolID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func without(ids []types.SymbolID, id types.SymbolID) []types.SymbolID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Get returns the symbol with the given id.
func (c *Cache) Get(id types.SymbolID) (types.Symbol, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byID[id]
	return s, ok
}

// Candidates returns the ids of every symbol called name.
func (c *Cache) Candidates(name string) []types.SymbolID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.SymbolID(nil), c.byName[name]...)
}

// SymbolsInFile returns the ids of the symbols owned by fileID.
func (c *Cache) SymbolsInFile(fileID types.FileID) []types.SymbolID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.SymbolID(nil), c.byFile[fileID]...)
}

// Len is the number of cached symbols.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// FileCount is the number of files with at least one symbol.
func (c *Cache) FileCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byFile)
}

// UniqueNames is the number of distinct symbol names.
func (c *Cache) UniqueNames() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byName)
}

// ImportMatcher reports whether importPath brings a symbol living in
// modulePath into scope.
type ImportMatcher func(importPath, modulePath string) bool

// Resolve looks name up from the point of view of caller. Strategies, in
// order:
//  1. Local: symbols in the caller's file
//  2. Import: an import that binds name, by alias or by imported name
//  3. Same language, visible from the caller
//  4. Any visible symbol
//
// The first strategy with matches decides the outcome. toRange is the
// reference site; shadowing among several local matches is left to the
// caller.
func (c *Cache) Resolve(name string, caller types.CallerContext, toRange *types.Range, imports []types.Import) Result {
	return c.ResolveWith(name, caller, toRange, imports, nil)
}

// ResolveWith is Resolve with a language rule for the import strategy.
// A nil match falls back to path containment.
func (c *Cache) ResolveWith(name string, caller types.CallerContext, toRange *types.Range, imports []types.Import, match ImportMatcher) Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates := c.byName[name]

	var local []types.SymbolID
	for _, id := range candidates {
		if c.byID[id].FileID == caller.FileID {
			local = append(local, id)
		}
	}
	if len(local) > 0 {
		return pick(local)
	}

	for _, imp := range imports {
		target, ok := importedName(imp, name)
		if !ok {
			continue
		}
		if id, ok := c.findByImportPath(imp.Path, target, caller.Language, match); ok {
			return found(id)
		}
	}
	if len(candidates) == 0 {
		return Result{}
	}

	var sameLanguage, visible []types.SymbolID
	for _, id := range candidates {
		s := c.byID[id]
		if !isVisible(s, caller) {
			continue
		}
		visible = append(visible, id)
		if s.Language == caller.Language {
			sameLanguage = append(sameLanguage, id)
		}
	}
	if len(sameLanguage) > 0 {
		return pick(sameLanguage)
	}
	return pick(visible)
}

// importedName returns the name imp exports under the local name, or false
// when imp does not bind name. A default import keeps the local name.
func importedName(imp types.Import, name string) (string, bool) {
	switch {
	case imp.IsGlob:
		return "", false
	case imp.Alias != "":
		if imp.Alias != name {
			return "", false
		}
		switch imp.Name {
		case "":
			return LastSegment(imp.Path), true
		case "default":
			return name, true
		}
		return imp.Name, true
	case imp.Name != "":
		return name, imp.Name == name
	default:
		return name, LastSegment(imp.Path) == name
	}
}

// isVisible applies the three-level rule: same file, same module, or public.
func isVisible(s types.Symbol, caller types.CallerContext) bool {
	return s.FileID == caller.FileID || caller.IsSameModule(s.ModulePath) || s.Visibility == types.Public
}

// findByImportPath picks the symbol called target, in the caller's
// language, that the import at path brings into scope. The first one match
// accepts wins. Otherwise the candidate whose module path and the import
// path contain one another is used, the longest module path first.
func (c *Cache) findByImportPath(path, target string, language types.LanguageID, match ImportMatcher) (types.SymbolID, bool) {
	var (
		best    types.SymbolID
		bestLen = -1
	)
	for _, id := range c.byName[target] {
		s := c.byID[id]
		if s.Language != language || s.ModulePath == "" {
			continue
		}
		if match != nil && match(path, s.ModulePath) {
			return id, true
		}
		if len(s.ModulePath) > bestLen && (strings.Contains(path, s.ModulePath) || strings.Contains(s.ModulePath, path)) {
			best, bestLen = id, len(s.ModulePath)
		}
	}
	return best, bestLen >= 0
}

// LastSegment returns the final component of a module or import path in
// any of the supported separators.
func LastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	i := -1
	for _, sep := range []string{"::", ".", "/", "\\"} {
		if j := strings.LastIndex(path, sep); j >= 0 && j+len(sep) > i {
			i = j + len(sep)
		}
	}
	if i < 0 {
		return path
	}
	return path[i:]
}
