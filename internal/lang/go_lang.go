package lang

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DeusData/codebase-index/internal/types"
)

func init() {
	builtin(&LanguageSpec{
		Language:          Go,
		FileExtensions:    []string{".go"},
		FunctionNodeTypes: []string{"function_declaration", "method_declaration", "method_elem"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"type_spec":  types.KindTypeAlias,
			"type_alias": types.KindTypeAlias,
		},
		TypeBodyKinds: map[string]types.SymbolKind{
			"struct_type":    types.KindStruct,
			"interface_type": types.KindInterface,
		},
		FieldNodeTypes: []string{"field_declaration"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"const_spec": types.KindConstant,
			"var_spec":   types.KindVariable,
		},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_spec"},
		VariableNodeTypes: []string{"var_spec", "short_var_declaration", "parameter_declaration"},
		ReceiverField:     "receiver",
		Behavior:          goBehavior{},
	})
}

// goBehavior treats a package directory as the module.
type goBehavior struct{}

func (goBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	dir := path.Dir(relPath(file, projectRoot))
	if dir == "" {
		dir = "."
	}
	return dir, true
}

// ImportMatchesSymbol matches a full import path against a package directory
// relative to the repository root.
func (goBehavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	if importPath == "" || symbolModulePath == "" || symbolModulePath == "." {
		return false
	}
	return importPath == symbolModulePath || strings.HasSuffix(importPath, "/"+symbolModulePath)
}

// ParseVisibility reports exported identifiers as public and everything
// else as package scoped.
func (goBehavior) ParseVisibility(signature string) types.Visibility {
	name := goDeclName(signature)
	r, _ := utf8.DecodeRuneInString(name)
	if r != utf8.RuneError && unicode.IsUpper(r) {
		return types.Public
	}
	return types.Module
}

func (goBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, ".")
}

// goDeclName pulls the declared identifier out of a Go signature.
func goDeclName(sig string) string {
	sig = strings.TrimSpace(sig)
	for _, kw := range []string{"func", "type", "var", "const"} {
		if strings.HasPrefix(sig, kw+" ") {
			sig = strings.TrimSpace(sig[len(kw):])
			break
		}
	}
	if strings.HasPrefix(sig, "(") {
		if i := strings.IndexByte(sig, ')'); i >= 0 {
			sig = strings.TrimSpace(sig[i+1:])
		}
	}
	end := strings.IndexFunc(sig, func(r rune) bool {
		return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	if end < 0 {
		return sig
	}
	return sig[:end]
}
