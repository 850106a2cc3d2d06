package lang

import (
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

func init() {
	builtin(&LanguageSpec{
		Language:          Python,
		FileExtensions:    []string{".py", ".pyi"},
		FunctionNodeTypes: []string{"function_definition"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_definition": types.KindClass,
		},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"assignment": types.KindVariable,
		},
		CallNodeTypes:     []string{"call"},
		ImportNodeTypes:   []string{"import_statement", "import_from_statement"},
		HeritageNodeTypes: map[string]types.RelationKind{"argument_list": types.Extends},
		VariableNodeTypes: []string{"assignment", "typed_parameter", "typed_default_parameter"},
		SelfNames:         []string{"self", "cls"},
		Behavior:          pythonBehavior{},
	})
}

type pythonBehavior struct{}

// ModulePathFromFile maps pkg/sub/mod.py to pkg.sub.mod; a package's
// __init__.py names the package.
func (pythonBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	rel := stripExt(relPath(file, projectRoot))
	rel = strings.TrimPrefix(rel, "src/")
	if rel == "__init__" {
		return "", false
	}
	rel = strings.TrimSuffix(rel, "/__init__")
	if rel == "" {
		return "", false
	}
	return strings.ReplaceAll(rel, "/", "."), true
}

func (b pythonBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	return matchesModule(b.absolute(importPath, importingModule), symbolModulePath, ".")
}

// absolute resolves leading dots against the importing module's package.
func (pythonBehavior) absolute(importPath, importingModule string) string {
	if !strings.HasPrefix(importPath, ".") {
		return importPath
	}
	dots := len(importPath) - len(strings.TrimLeft(importPath, "."))
	rest := importPath[dots:]
	base := importingModule
	for i := 0; i < dots; i++ {
		base = parentOf(base, ".")
	}
	return joinModule(base, rest, ".")
}

// ParseVisibility applies the underscore convention. Dunder names are public.
func (pythonBehavior) ParseVisibility(signature string) types.Visibility {
	sig := strings.TrimSpace(signature)
	sig = strings.TrimPrefix(sig, "async ")
	name := ""
	for _, kw := range []string{"def", "class"} {
		if w := firstWordAfter(sig, kw); w != "" {
			name = w
			break
		}
	}
	if name == "" {
		name = strings.TrimSpace(strings.SplitN(sig, "=", 2)[0])
	}
	switch {
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return types.Public
	case strings.HasPrefix(name, "_"):
		return types.Private
	default:
		return types.Public
	}
}

func (pythonBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, ".")
}
