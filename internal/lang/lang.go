package lang

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/DeusData/codebase-index/internal/types"
)

// Language represents a supported programming language.
type Language = types.LanguageID

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
	CPP        Language = "cpp"
	TSX        Language = "tsx"
	CSharp     Language = "c-sharp"
	PHP        Language = "php"
	Lua        Language = "lua"
	Scala      Language = "scala"
	Kotlin     Language = "kotlin"
	Zig        Language = "zig"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{Python, JavaScript, TypeScript, TSX, Go, Rust, Java, CPP, CSharp, PHP, Lua, Scala, Kotlin, Zig}
}

// LanguageSpec defines the tree-sitter node types for a language and the
// behavior used when resolving its references.
type LanguageSpec struct {
	Language       Language
	FileExtensions []string

	// FunctionNodeTypes are functions and methods. Inside a type body they
	// become methods of that type.
	FunctionNodeTypes []string
	// TypeNodeKinds maps class-like declarations to the symbol kind they produce.
	TypeNodeKinds map[string]types.SymbolKind
	// TypeBodyKinds refines a TypeNodeKinds match by the kind of its "type"
	// child (Go type_spec -> struct_type / interface_type).
	TypeBodyKinds map[string]types.SymbolKind
	// ImplNodeTypes are blocks that attach methods to a type declared
	// elsewhere ("type" field) and optionally a trait ("trait" field).
	ImplNodeTypes []string
	// ModuleNodeTypes are nested module declarations (not the root node).
	ModuleNodeTypes []string
	FieldNodeTypes  []string
	// ConstantNodeTypes maps module level value declarations to their kind.
	ConstantNodeTypes map[string]types.SymbolKind
	CallNodeTypes     []string
	ImportNodeTypes   []string
	// HeritageNodeTypes are children of a type declaration that name its
	// supertypes, with the relation they imply by default.
	HeritageNodeTypes map[string]types.RelationKind
	// InterfacePrefix marks supertypes that are interfaces by convention
	// (C# IDisposable).
	InterfacePrefix string
	// VariableNodeTypes are declarations that bind a name to a type.
	VariableNodeTypes []string
	// ReceiverField is the field holding a method receiver (Go).
	ReceiverField string
	// SelfNames are receivers that denote the enclosing type.
	SelfNames []string

	Behavior Behavior
}

// builtins is filled by the per-language files.
var builtins []*LanguageSpec

func builtin(spec *LanguageSpec) {
	builtins = append(builtins, spec)
}

// Registry maps extensions and language ids to specs. It is passed
// explicitly to every stage that needs it; there is no process-wide
// instance.
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string]*LanguageSpec
	byLang map[Language]*LanguageSpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string]*LanguageSpec),
		byLang: make(map[Language]*LanguageSpec),
	}
}

// DefaultRegistry returns a registry holding every built-in language.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, spec := range builtins {
		r.Register(spec)
	}
	return r
}

// Register adds a LanguageSpec. Later registrations win for shared extensions.
func (r *Registry) Register(spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if spec.Behavior == nil {
		spec.Behavior = genericBehavior{sep: "."}
	}
	for _, ext := range spec.FileExtensions {
		r.byExt[ext] = spec
	}
	r.byLang[spec.Language] = spec
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".go").
func (r *Registry) ForExtension(ext string) *LanguageSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

// ForPath returns the LanguageSpec claiming path's extension.
func (r *Registry) ForPath(path string) *LanguageSpec {
	return r.ForExtension(strings.ToLower(filepath.Ext(path)))
}

// ForLanguage returns the LanguageSpec for a language.
func (r *Registry) ForLanguage(l Language) *LanguageSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byLang[l]
}

// LanguageForExtension returns the Language for a file extension.
func (r *Registry) LanguageForExtension(ext string) (Language, bool) {
	spec := r.ForExtension(ext)
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// Behavior returns the behavior of a language, or nil.
func (r *Registry) Behavior(l Language) Behavior {
	spec := r.ForLanguage(l)
	if spec == nil {
		return nil
	}
	return spec.Behavior
}

// Extensions lists every claimed extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Languages lists the registered languages, sorted.
func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Language, 0, len(r.byLang))
	for l := range r.byLang {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
