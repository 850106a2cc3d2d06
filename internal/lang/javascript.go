package lang

import (
	"path"
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

func init() {
	builtin(&LanguageSpec{
		Language:       JavaScript,
		FileExtensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
		},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration": types.KindClass,
			"class":             types.KindClass,
		},
		FieldNodeTypes: []string{"field_definition"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"variable_declarator": types.KindVariable,
		},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"import_statement"},
		HeritageNodeTypes: map[string]types.RelationKind{"class_heritage": types.Extends},
		VariableNodeTypes: []string{"variable_declarator"},
		SelfNames:         []string{"this"},
		Behavior:          jsBehavior{},
	})
}

// jsBehavior is shared by JavaScript and TypeScript: modules are files,
// named by their slash path without extension.
type jsBehavior struct{}

func (jsBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	rel := stripExt(relPath(file, projectRoot))
	if strings.HasSuffix(rel, ".d") {
		rel = strings.TrimSuffix(rel, ".d")
	}
	if rel == "index" {
		return ".", true
	}
	rel = strings.TrimSuffix(rel, "/index")
	if rel == "" {
		return "", false
	}
	return rel, true
}

// ImportMatchesSymbol resolves relative specifiers against the importing
// module's directory. Bare specifiers match by path suffix.
func (jsBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	if importPath == "" || symbolModulePath == "" {
		return false
	}
	spec := stripJSExt(importPath)
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		dir := path.Dir(importingModule)
		if importingModule == "" {
			dir = "."
		}
		resolved := path.Clean(path.Join(dir, spec))
		return resolved == symbolModulePath || strings.TrimSuffix(resolved, "/index") == symbolModulePath
	}
	spec = strings.TrimPrefix(spec, "@/")
	return spec == symbolModulePath || strings.HasSuffix(symbolModulePath, "/"+spec)
}

func stripJSExt(p string) string {
	switch path.Ext(p) {
	case ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx":
		return stripExt(p)
	}
	return p
}

// ParseVisibility treats exported declarations as public and the rest as
// module scoped. Class members marked private or with # are private.
func (jsBehavior) ParseVisibility(signature string) types.Visibility {
	sig := strings.TrimSpace(signature)
	switch {
	case strings.HasPrefix(sig, "export "):
		return types.Public
	case strings.HasPrefix(sig, "private ") || strings.HasPrefix(sig, "#"):
		return types.Private
	case strings.HasPrefix(sig, "public ") || strings.HasPrefix(sig, "protected "):
		return types.Public
	default:
		return types.Module
	}
}

func (jsBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, ".")
}
