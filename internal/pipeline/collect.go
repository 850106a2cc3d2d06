package pipeline

import (
	"github.com/DeusData/codebase-index/internal/changes"
	"github.com/DeusData/codebase-index/internal/types"
)

// collected is what COLLECT adds to the index, kept apart for WRITE.
type collected struct {
	contexts []*types.ResolutionContext
	files    []types.FileInfo
	symbols  []types.Symbol
	imports  map[types.FileID][]types.Import
}

type ownerKey struct {
	name string
	r    types.Range
}

// collect assigns identities to the parsed records, installs them in the
// index and the cache, and builds one ResolutionContext per file. Re-parsed
// files keep their FileID; dependents also keep their symbols and imports
// and contribute only a context.
func (p *Pipeline) collect(parsed []*types.ParsedFile, pl *plan) *collected {
	c := &collected{imports: make(map[types.FileID][]types.Import)}
	for _, pf := range parsed {
		fid, ok := pl.keep[pf.RelPath]
		if !ok {
			fid = p.index.AllocFileID()
		}
		dependent := pl.dependents[fid]
		var existing map[ownerKey]types.SymbolID
		if dependent {
			existing = p.symbolsByOwner(fid)
		} else {
			info := changes.NewFileInfo(fid, pf.RelPath, pf.Language, pf.Hash)
			p.index.Files[pf.RelPath] = fid
			p.index.FileInfos[fid] = info
			c.files = append(c.files, info)
		}

		rc := &types.ResolutionContext{
			FileID:   fid,
			Language: pf.Language,
			Scope:    types.Scope{ModulePath: pf.ModulePath},
		}
		byRange := make(map[ownerKey]types.SymbolID, len(pf.Symbols))
		byName := make(map[string]types.SymbolID, len(pf.Symbols))
		for _, raw := range pf.Symbols {
			key := ownerKey{raw.Name, raw.Range}
			if id, ok := existing[key]; ok {
				rc.LocalSymbols = append(rc.LocalSymbols, id)
				byRange[key] = id
				if _, dup := byName[raw.Name]; !dup {
					byName[raw.Name] = id
				}
				continue
			}
			sym := types.Symbol{
				ID:         p.index.AllocSymbolID(),
				Name:       raw.Name,
				Kind:       raw.Kind,
				FileID:     fid,
				FilePath:   pf.RelPath,
				Range:      raw.Range,
				Signature:  raw.Signature,
				Doc:        raw.Doc,
				Visibility: raw.Visibility,
				ModulePath: pf.ModulePath,
				Scope:      raw.Scope,
				Language:   pf.Language,
			}
			p.index.Symbols = append(p.index.Symbols, sym)
			p.cache.Insert(sym)
			c.symbols = append(c.symbols, sym)
			rc.LocalSymbols = append(rc.LocalSymbols, sym.ID)

			byRange[key] = sym.ID
			if _, dup := byName[raw.Name]; !dup {
				byName[raw.Name] = sym.ID
			}
		}

		for _, raw := range pf.Imports {
			rc.Imports = append(rc.Imports, raw.ToImport(fid))
		}
		if len(rc.Imports) > 0 && !dependent {
			p.index.Imports[fid] = rc.Imports
			c.imports[fid] = rc.Imports
		}

		for _, raw := range pf.Relationships {
			from, ok := byRange[ownerKey{raw.FromName, raw.FromRange}]
			if !ok {
				from = byName[raw.FromName]
			}
			to := raw.ToRange
			rc.Unresolved = append(rc.Unresolved, types.UnresolvedRelationship{
				FromID:   from,
				FromName: raw.FromName,
				ToName:   raw.ToName,
				FileID:   fid,
				Kind:     raw.Kind,
				Metadata: raw.Metadata,
				ToRange:  &to,
			})
		}
		c.contexts = append(c.contexts, rc)
	}
	return c
}

// symbolsByOwner maps the symbols fileID already owns by name and range.
func (p *Pipeline) symbolsByOwner(fileID types.FileID) map[ownerKey]types.SymbolID {
	out := make(map[ownerKey]types.SymbolID)
	for _, s := range p.index.Symbols {
		if s.FileID == fileID {
			out[ownerKey{s.Name, s.Range}] = s.ID
		}
	}
	return out
}
