package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:          Kotlin,
		FileExtensions:    []string{".kt", ".kts"},
		FunctionNodeTypes: []string{"function_declaration", "secondary_constructor"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration":  types.KindClass,
			"object_declaration": types.KindClass,
		},
		FieldNodeTypes:  []string{"property_declaration"},
		CallNodeTypes:   []string{"call_expression"},
		ImportNodeTypes: []string{"import", "import_header"},
		HeritageNodeTypes: map[string]types.RelationKind{
			"delegation_specifiers": types.Extends,
			"delegation_specifier":  types.Extends,
		},
		VariableNodeTypes: []string{"property_declaration", "parameter"},
		SelfNames:         []string{"this"},
		Behavior:          jvmBehavior{defaultVisibility: types.Public},
	})
}
