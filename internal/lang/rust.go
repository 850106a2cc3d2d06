package lang

import (
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

func init() {
	builtin(&LanguageSpec{
		Language:          Rust,
		FileExtensions:    []string{".rs"},
		FunctionNodeTypes: []string{"function_item", "function_signature_item"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"struct_item": types.KindStruct,
			"enum_item":   types.KindEnum,
			"union_item":  types.KindStruct,
			"trait_item":  types.KindTrait,
			"type_item":   types.KindTypeAlias,
		},
		ImplNodeTypes:   []string{"impl_item"},
		ModuleNodeTypes: []string{"mod_item"},
		FieldNodeTypes:  []string{"field_declaration"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"const_item":       types.KindConstant,
			"static_item":      types.KindVariable,
			"macro_definition": types.KindMacro,
		},
		CallNodeTypes:     []string{"call_expression", "macro_invocation"},
		ImportNodeTypes:   []string{"use_declaration"},
		VariableNodeTypes: []string{"let_declaration", "parameter"},
		SelfNames:         []string{"self", "Self"},
		Behavior:          rustBehavior{},
	})
}

type rustBehavior struct{}

// ModulePathFromFile maps src/a/b.rs to crate::a::b. lib.rs, main.rs and
// mod.rs name their directory.
func (rustBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	rel := relPath(file, projectRoot)
	if strings.HasPrefix(rel, "src/") {
		rel = rel[len("src/"):]
	} else if i := strings.Index(rel, "/src/"); i >= 0 {
		rel = rel[i+len("/src/"):]
	}
	rel = stripExt(rel)
	switch {
	case rel == "lib" || rel == "main":
		return "crate", true
	case strings.HasSuffix(rel, "/mod"):
		rel = strings.TrimSuffix(rel, "/mod")
	}
	if rel == "" {
		return "crate", true
	}
	return "crate::" + strings.ReplaceAll(rel, "/", "::"), true
}

func (b rustBehavior) ImportMatchesSymbol(importPath, symbolModulePath, importingModule string) bool {
	return matchesModule(b.absolute(importPath, importingModule), symbolModulePath, "::")
}

// absolute rewrites self::, super:: and bare paths to crate:: paths.
func (rustBehavior) absolute(importPath, importingModule string) string {
	if importingModule == "" {
		importingModule = "crate"
	}
	switch {
	case strings.HasPrefix(importPath, "crate::") || importPath == "crate":
		return importPath
	case strings.HasPrefix(importPath, "self::"):
		return importingModule + "::" + strings.TrimPrefix(importPath, "self::")
	case strings.HasPrefix(importPath, "super::"):
		base := importingModule
		for strings.HasPrefix(importPath, "super::") {
			importPath = strings.TrimPrefix(importPath, "super::")
			if p := parentOf(base, "::"); p != "" {
				base = p
			}
		}
		return base + "::" + importPath
	case strings.HasPrefix(importPath, "std::") || strings.HasPrefix(importPath, "core::") || strings.HasPrefix(importPath, "alloc::"):
		return importPath
	default:
		return "crate::" + importPath
	}
}

func (rustBehavior) ParseVisibility(signature string) types.Visibility {
	sig := strings.TrimSpace(signature)
	switch {
	case strings.HasPrefix(sig, "pub(crate)"):
		return types.Crate
	case strings.HasPrefix(sig, "pub(super)"), strings.HasPrefix(sig, "pub(self)"), strings.HasPrefix(sig, "pub(in "):
		return types.Module
	case strings.HasPrefix(sig, "pub ") || strings.HasPrefix(sig, "pub\t"):
		return types.Public
	default:
		return types.Private
	}
}

func (rustBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, "::")
}
