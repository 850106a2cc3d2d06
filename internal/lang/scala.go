package lang

import "github.com/DeusData/codebase-index/internal/types"

func init() {
	builtin(&LanguageSpec{
		Language:          Scala,
		FileExtensions:    []string{".scala", ".sc"},
		FunctionNodeTypes: []string{"function_definition", "function_declaration"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_definition":  types.KindClass,
			"object_definition": types.KindClass,
			"trait_definition":  types.KindTrait,
			"enum_definition":   types.KindEnum,
		},
		ConstantNodeTypes: map[string]types.SymbolKind{
			"val_definition": types.KindConstant,
			"var_definition": types.KindVariable,
		},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_declaration"},
		HeritageNodeTypes: map[string]types.RelationKind{"extends_clause": types.Extends},
		VariableNodeTypes: []string{"val_definition", "var_definition", "parameter"},
		SelfNames:         []string{"this"},
		Behavior:          jvmBehavior{defaultVisibility: types.Public},
	})
}
