package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:       CSharp,
		FileExtensions: []string{".cs"},
		FunctionNodeTypes: []string{
			"method_declaration",
			"constructor_declaration",
			"destructor_declaration",
			"local_function_statement",
		},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration":     types.KindClass,
			"struct_declaration":    types.KindStruct,
			"record_declaration":    types.KindClass,
			"interface_declaration": types.KindInterface,
			"enum_declaration":      types.KindEnum,
		},
		ModuleNodeTypes:   []string{"namespace_declaration"},
		FieldNodeTypes:    []string{"field_declaration", "property_declaration"},
		CallNodeTypes:     []string{"invocation_expression", "object_creation_expression"},
		ImportNodeTypes:   []string{"using_directive"},
		HeritageNodeTypes: map[string]types.RelationKind{"base_list": types.Extends},
		InterfacePrefix:   "I",
		VariableNodeTypes: []string{"variable_declaration", "parameter"},
		SelfNames:         []string{"this"},
		Behavior:          jvmBehavior{defaultVisibility: types.Private},
	})
}
