package lang

import "github.com/DeusData/codebase-index/internal/types"

func typeScriptSpec(l Language, exts []string) *LanguageSpec {
	return &LanguageSpec{
		Language:       l,
		FileExtensions: exts,
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
			"method_signature",
			"abstract_method_signature",
			"function_signature",
		},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration":          types.KindClass,
			"class":                      types.KindClass,
			"abstract_class_declaration": types.KindClass,
			"interface_declaration":      types.KindInterface,
			"enum_declaration":           types.KindEnum,
			"type_alias_declaration":     types.KindTypeAlias,
		},
		ModuleNodeTypes: []string{"internal_module", "module"},
		FieldNodeTypes:  []string{"public_field_definition", "property_signature"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"variable_declarator": types.KindVariable,
		},
		CallNodeTypes:   []string{"call_expression", "new_expression"},
		ImportNodeTypes: []string{"import_statement"},
		HeritageNodeTypes: map[string]types.RelationKind{
			"class_heritage":      types.Extends,
			"extends_type_clause": types.Extends,
		},
		VariableNodeTypes: []string{"variable_declarator", "required_parameter", "optional_parameter"},
		SelfNames:         []string{"this"},
		Behavior:          jsBehavior{},
	}
}

func init() {
	builtin(typeScriptSpec(TypeScript, []string{".ts", ".mts", ".cts"}))
}
