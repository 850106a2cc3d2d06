package types

// RawSymbol is a symbol as extracted from one file, before ids exist.
type RawSymbol struct {
	Name       string
	Kind       SymbolKind
	Range      Range
	Signature  string
	Doc        string
	Visibility Visibility
	Scope      ScopeContext
}

// RawImport is an import as extracted from one file.
type RawImport struct {
	Path string
	// Name is the exported name an import brings in when the path names
	// only its module, as in JavaScript's import { x } from "./m".
	Name       string
	Alias      string
	IsGlob     bool
	IsTypeOnly bool
}

// ToImport attaches the owning file.
func (r RawImport) ToImport(fileID FileID) Import {
	return Import{Path: r.Path, Name: r.Name, Alias: r.Alias, IsGlob: r.IsGlob, IsTypeOnly: r.IsTypeOnly, FileID: fileID}
}

// RawRelationship is a name-to-name edge. FromRange is the definition
// site of the owner; ToRange is the reference site.
type RawRelationship struct {
	FromName  string
	FromRange Range
	ToName    string
	ToRange   Range
	Kind      RelationKind
	Metadata  *RelationshipMetadata
}

// FileContent is the output of the READ stage.
type FileContent struct {
	Path    string // absolute
	RelPath string // slash separated, relative to the root
	Content []byte
	Hash    string
}

// ParsedFile is everything the PARSE stage extracted from one file.
type ParsedFile struct {
	Path          string
	RelPath       string
	Hash          string
	Language      LanguageID
	ModulePath    string
	Symbols       []RawSymbol
	Imports       []RawImport
	Relationships []RawRelationship
}

// UnresolvedRelationship is a RawRelationship whose owner may have been
// matched to a symbol during COLLECT. FromID is zero when no owner matched.
type UnresolvedRelationship struct {
	FromID   SymbolID
	FromName string
	ToName   string
	FileID   FileID
	Kind     RelationKind
	Metadata *RelationshipMetadata
	ToRange  *Range
}

// CallerContext describes where a reference occurs.
type CallerContext struct {
	FileID     FileID
	ModulePath string
	Language   LanguageID
}

// CallerFromFile builds a context when the calling symbol is unknown.
func CallerFromFile(fileID FileID, language LanguageID) CallerContext {
	return CallerContext{FileID: fileID, Language: language}
}

// IsSameModule reports whether modulePath names the caller's module.
func (c CallerContext) IsSameModule(modulePath string) bool {
	return c.ModulePath != "" && c.ModulePath == modulePath
}

// Scope is the per-file lexical context handed to resolution.
type Scope struct {
	// ModulePath of the file whose references are being resolved; used to
	// interpret relative imports.
	ModulePath string
}

// ResolutionContext is one file's batch of work for the resolver.
type ResolutionContext struct {
	FileID       FileID
	Language     LanguageID
	Imports      []Import
	LocalSymbols []SymbolID
	Scope        Scope
	Unresolved   []UnresolvedRelationship
}
