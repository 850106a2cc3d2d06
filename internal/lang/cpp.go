package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:          CPP,
		FileExtensions:    []string{".cpp", ".h", ".hpp", ".cc", ".cxx", ".hxx", ".hh"},
		FunctionNodeTypes: []string{"function_definition"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_specifier":  types.KindClass,
			"struct_specifier": types.KindStruct,
			"union_specifier":  types.KindStruct,
			"enum_specifier":   types.KindEnum,
		},
		ModuleNodeTypes:   []string{"namespace_definition"},
		FieldNodeTypes:    []string{"field_declaration"},
		CallNodeTypes:     []string{"call_expression", "new_expression"},
		ImportNodeTypes:   []string{"preproc_include"},
		HeritageNodeTypes: map[string]types.RelationKind{"base_class_clause": types.Extends},
		VariableNodeTypes: []string{"declaration", "parameter_declaration"},
		SelfNames:         []string{"this"},
		Behavior:          genericBehavior{sep: "::"},
	})
}
