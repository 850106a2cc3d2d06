package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:          PHP,
		FileExtensions:    []string{".php"},
		FunctionNodeTypes: []string{"function_definition", "method_declaration"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration":     types.KindClass,
			"interface_declaration": types.KindInterface,
			"trait_declaration":     types.KindTrait,
			"enum_declaration":      types.KindEnum,
		},
		FieldNodeTypes: []string{"property_declaration"},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"const_declaration": types.KindConstant,
		},
		CallNodeTypes: []string{
			"function_call_expression",
			"member_call_expression",
			"nullsafe_member_call_expression",
			"scoped_call_expression",
			"object_creation_expression",
		},
		ImportNodeTypes: []string{"namespace_use_declaration"},
		HeritageNodeTypes: map[string]types.RelationKind{
			"base_clause":            types.Extends,
			"class_interface_clause": types.Implements,
		},
		SelfNames: []string{"$this", "self", "static"},
		Behavior:  genericBehavior{sep: "\\"},
	})
}
