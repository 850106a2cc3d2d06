package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:          Zig,
		FileExtensions:    []string{".zig"},
		FunctionNodeTypes: []string{"function_declaration"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"struct_declaration": types.KindStruct,
			"enum_declaration":   types.KindEnum,
			"union_declaration":  types.KindStruct,
		},
		FieldNodeTypes:    []string{"container_field"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"variable_declaration": types.KindConstant,
		},
		CallNodeTypes: []string{"call_expression"},
		SelfNames:     []string{"self"},
		Behavior:      genericBehavior{sep: "."},
	})
}
