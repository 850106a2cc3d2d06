package lang

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

// Behavior holds the language rules used by collection and resolution.
type Behavior interface {
	// ModulePathFromFile derives the module path of a file. ok is false
	// when the file has no meaningful module path.
	ModulePathFromFile(file, projectRoot string) (modulePath string, ok bool)
	// ImportMatchesSymbol reports whether importPath brings a symbol living
	// in symbolModulePath into scope. importingModule is the module path of
	// the importing file, empty when unknown.
	ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool
	// ParseVisibility reads the access level from a declaration signature.
	ParseVisibility(signature string) types.Visibility
	// FormatModulePath joins a module path and a member name.
	FormatModulePath(base, name string) string
}

// relPath returns file relative to root, slash separated.
func relPath(file, root string) string {
	if root == "" {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func stripExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// parentOf drops the last sep-separated segment of p.
func parentOf(p, sep string) string {
	if i := strings.LastIndex(p, sep); i >= 0 {
		return p[:i]
	}
	return ""
}

// matchesModule is the shared rule: the import names the module itself,
// an item inside it, or globs it.
func matchesModule(importPath, symbolModulePath, sep string) bool {
	if importPath == "" || symbolModulePath == "" {
		return false
	}
	if importPath == symbolModulePath {
		return true
	}
	if strings.HasSuffix(importPath, sep+"*") {
		return strings.TrimSuffix(importPath, sep+"*") == symbolModulePath
	}
	return parentOf(importPath, sep) == symbolModulePath
}

func joinModule(base, name, sep string) string {
	if base == "" {
		return name
	}
	if name == "" {
		return base
	}
	return base + sep + name
}

// firstWordAfter returns the identifier following keyword in sig.
func firstWordAfter(sig, keyword string) string {
	fields := strings.FieldsFunc(sig, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ')' || r == ':' || r == '<' || r == '['
	})
	for i, f := range fields {
		if f == keyword && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func hasWord(sig, word string) bool {
	for _, f := range strings.Fields(sig) {
		if f == word {
			return true
		}
	}
	return false
}

// genericBehavior covers languages without dedicated rules: the module
// path is the file path without extension, joined with sep.
type genericBehavior struct {
	sep string
}

func (b genericBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	rel := stripExt(relPath(file, projectRoot))
	if rel == "" || rel == "." {
		return "", false
	}
	return strings.ReplaceAll(rel, "/", b.sep), true
}

func (b genericBehavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	switch path.Ext(importPath) {
	case ".h", ".hh", ".hpp", ".hxx", ".lua", ".zig", ".php":
		importPath = stripExt(importPath)
	}
	importPath = strings.TrimPrefix(strings.ReplaceAll(importPath, "/", b.sep), b.sep)
	return matchesModule(importPath, symbolModulePath, b.sep) ||
		strings.HasSuffix(symbolModulePath, b.sep+importPath)
}

func (b genericBehavior) ParseVisibility(signature string) types.Visibility {
	switch {
	case hasWord(signature, "private") || hasWord(signature, "static") || hasWord(signature, "local"):
		return types.Private
	case hasWord(signature, "protected"):
		return types.Crate
	default:
		return types.Public
	}
}

func (b genericBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, b.sep)
}
