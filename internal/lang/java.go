package lang

import (
	"strings"

	"github.com/DeusData/codebase-index/internal/types"
)

func init() {
	builtin(&LanguageSpec{
		Language:          Java,
		FileExtensions:    []string{".java"},
		FunctionNodeTypes: []string{"method_declaration", "constructor_declaration"},
		TypeNodeKinds: map[string]types.SymbolKind{
			"class_declaration":           types.KindClass,
			"interface_declaration":       types.KindInterface,
			"enum_declaration":            types.KindEnum,
			"annotation_type_declaration": types.KindInterface,
			"record_declaration":          types.KindClass,
		},
		FieldNodeTypes: []string{"field_declaration", "constant_declaration"},
		CallNodeTypes:  []string{"method_invocation", "object_creation_expression"},
		ImportNodeTypes: []string{"import_declaration"},
		HeritageNodeTypes: map[string]types.RelationKind{
			"superclass":         types.Extends,
			"super_interfaces":   types.Implements,
			"extends_interfaces": types.Extends,
		},
		VariableNodeTypes: []string{"local_variable_declaration", "field_declaration", "formal_parameter"},
		SelfNames:         []string{"this"},
		Behavior:          jvmBehavior{defaultVisibility: types.Module},
	})
}

// jvmBehavior serves the package-per-directory languages: Java, Kotlin,
// Scala and C#. The module path is the dotted source directory.
type jvmBehavior struct {
	defaultVisibility types.Visibility
}

var jvmSourceRoots = []string{
	"src/main/java/", "src/test/java/",
	"src/main/kotlin/", "src/test/kotlin/",
	"src/main/scala/", "src/test/scala/",
	"src/",
}

func (jvmBehavior) ModulePathFromFile(file, projectRoot string) (string, bool) {
	rel := relPath(file, projectRoot)
	for _, root := range jvmSourceRoots {
		if i := strings.Index(rel, root); i >= 0 {
			rel = rel[i+len(root):]
			break
		}
	}
	dir := parentOf(rel, "/")
	if dir == "" {
		return "", false
	}
	return strings.ReplaceAll(dir, "/", "."), true
}

// ImportMatchesSymbol accepts a single type import (com.x.Foo), a wildcard
// (com.x.*) or a namespace import (C# using com.x).
func (jvmBehavior) ImportMatchesSymbol(importPath, symbolModulePath, _ string) bool {
	importPath = strings.TrimPrefix(importPath, "static ")
	return matchesModule(importPath, symbolModulePath, ".")
}

func (b jvmBehavior) ParseVisibility(signature string) types.Visibility {
	switch {
	case hasWord(signature, "private"):
		return types.Private
	case hasWord(signature, "internal"):
		return types.Crate
	case hasWord(signature, "protected"):
		return types.Module
	case hasWord(signature, "public"):
		return types.Public
	default:
		return b.defaultVisibility
	}
}

func (jvmBehavior) FormatModulePath(base, name string) string {
	return joinModule(base, name, ".")
}
