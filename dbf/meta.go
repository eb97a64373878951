package dbf

import "time"

// IndexMeta summarizes one index for diagnostic display.
type IndexMeta struct {
	Name    string
	KeyExpr string
	Unique  bool
}

// TableMeta is a diagnostic snapshot of a table: schema, counts and index
// summaries. Nothing in the core consults it; collaborators render it.
type TableMeta struct {
	Name           string
	FileSpec       string
	RowLen         int
	Fields         []Field
	TotalRows      uint64
	LiveRows       uint64
	PendingDeletes uint64
	LastUpdated    time.Time
	Indexes        []IndexMeta
}

// Meta assembles the table metadata.
func (t *Table) Meta() (TableMeta, error) {
	fi, err := t.f.Stat()
	if err != nil {
		return TableMeta{}, tableErrf(t.def.name, "", nil, err, "meta")
	}

	meta := TableMeta{
		Name:           t.def.name,
		FileSpec:       t.dataPath,
		RowLen:         t.def.schema.RowLen(),
		Fields:         t.def.schema.Fields(),
		TotalRows:      t.state.TotalRows,
		LiveRows:       t.state.LiveRows,
		PendingDeletes: t.state.PendingDeletes,
		LastUpdated:    fi.ModTime(),
	}
	for _, ix := range t.def.indexes {
		meta.Indexes = append(meta.Indexes, IndexMeta{
			Name:    ix.name,
			KeyExpr: ix.KeyExpr(),
			Unique:  ix.isUnique,
		})
	}
	return meta, nil
}
