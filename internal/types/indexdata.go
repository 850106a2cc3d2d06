package types

import (
	"reflect"
	"sort"
)

// IndexData is the in-memory image of an index: the unit that is loaded,
// saved and snapshotted by transactions.
type IndexData struct {
	Symbols       []Symbol            `json:"symbols"`
	Relationships []Relationship      `json:"relationships"`
	Files         map[string]FileID   `json:"files"`
	FileInfos     map[FileID]FileInfo `json:"file_infos"`
	Imports       map[FileID][]Import `json:"imports"`
	NextFileID    FileID              `json:"next_file_id"`
	NextSymbolID  SymbolID            `json:"next_symbol_id"`
}

// NewIndexData returns an empty index whose counters start at 1.
func NewIndexData() *IndexData {
	return &IndexData{
		Files:        make(map[string]FileID),
		FileInfos:    make(map[FileID]FileInfo),
		Imports:      make(map[FileID][]Import),
		NextFileID:   1,
		NextSymbolID: 1,
	}
}

// AllocFileID hands out the next file id. Ids are never reused.
func (d *IndexData) AllocFileID() FileID {
	if d.NextFileID == 0 {
		d.NextFileID = 1
	}
	id := d.NextFileID
	d.NextFileID++
	return id
}

// AllocSymbolID hands out the next symbol id. Ids are never reused.
func (d *IndexData) AllocSymbolID() SymbolID {
	if d.NextSymbolID == 0 {
		d.NextSymbolID = 1
	}
	id := d.NextSymbolID
	d.NextSymbolID++
	return id
}

// SymbolsInFile returns the ids of all symbols owned by fileID.
func (d *IndexData) SymbolsInFile(fileID FileID) []SymbolID {
	var ids []SymbolID
	for i := range d.Symbols {
		if d.Symbols[i].FileID == fileID {
			ids = append(ids, d.Symbols[i].ID)
		}
	}
	return ids
}

// RemoveFile drops every symbol, relationship and import owned by fileID
// and returns the ids of the removed symbols. Relationships pointing into
// the file from elsewhere are dropped too.
func (d *IndexData) RemoveFile(fileID FileID) []SymbolID {
	removed := make(map[SymbolID]struct{})
	kept := d.Symbols[:0]
	var ids []SymbolID
	for _, s := range d.Symbols {
		if s.FileID == fileID {
			removed[s.ID] = struct{}{}
			ids = append(ids, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	d.Symbols = kept

	if len(removed) > 0 {
		rels := d.Relationships[:0]
		for _, r := range d.Relationships {
			_, from := removed[r.FromID]
			_, to := removed[r.ToID]
			if from || to {
				continue
			}
			rels = append(rels, r)
		}
		d.Relationships = rels
	}

	if info, ok := d.FileInfos[fileID]; ok {
		delete(d.Files, info.Path)
		delete(d.FileInfos, fileID)
	}
	delete(d.Imports, fileID)
	return ids
}

// RemoveOutgoing drops the relationships whose source is a symbol owned by
// fileID and returns how many were dropped. The file's symbols stay.
func (d *IndexData) RemoveOutgoing(fileID FileID) int {
	owned := make(map[SymbolID]struct{})
	for _, s := range d.Symbols {
		if s.FileID == fileID {
			owned[s.ID] = struct{}{}
		}
	}
	if len(owned) == 0 {
		return 0
	}
	rels := d.Relationships[:0]
	for _, r := range d.Relationships {
		if _, ok := owned[r.FromID]; ok {
			continue
		}
		rels = append(rels, r)
	}
	n := len(d.Relationships) - len(rels)
	d.Relationships = rels
	return n
}

// Clone returns a deep copy that shares no memory with d.
func (d *IndexData) Clone() *IndexData {
	c := &IndexData{
		Symbols:       append([]Symbol(nil), d.Symbols...),
		Relationships: make([]Relationship, len(d.Relationships)),
		Files:         make(map[string]FileID, len(d.Files)),
		FileInfos:     make(map[FileID]FileInfo, len(d.FileInfos)),
		Imports:       make(map[FileID][]Import, len(d.Imports)),
		NextFileID:    d.NextFileID,
		NextSymbolID:  d.NextSymbolID,
	}
	for i, r := range d.Relationships {
		if r.Metadata != nil {
			m := *r.Metadata
			r.Metadata = &m
		}
		c.Relationships[i] = r
	}
	for k, v := range d.Files {
		c.Files[k] = v
	}
	for k, v := range d.FileInfos {
		c.FileInfos[k] = v
	}
	for k, v := range d.Imports {
		c.Imports[k] = append([]Import(nil), v...)
	}
	return c
}

// Equal reports whether two images hold the same content.
func (d *IndexData) Equal(o *IndexData) bool {
	if d == nil || o == nil {
		return d == o
	}
	return reflect.DeepEqual(d.normalized(), o.normalized())
}

// normalized returns a copy with empty collections canonicalised and
// slices sorted so that ordering differences do not affect Equal.
func (d *IndexData) normalized() *IndexData {
	c := d.Clone()
	sort.Slice(c.Symbols, func(i, j int) bool { return c.Symbols[i].ID < c.Symbols[j].ID })
	sort.SliceStable(c.Relationships, func(i, j int) bool {
		a, b := c.Relationships[i], c.Relationships[j]
		if a.FromID != b.FromID {
			return a.FromID < b.FromID
		}
		if a.ToID != b.ToID {
			return a.ToID < b.ToID
		}
		return a.Kind < b.Kind
	})
	if len(c.Symbols) == 0 {
		c.Symbols = nil
	}
	if len(c.Relationships) == 0 {
		c.Relationships = nil
	}
	for k, v := range c.Imports {
		if len(v) == 0 {
			delete(c.Imports, k)
		}
	}
	return c
}
