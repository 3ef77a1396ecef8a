package evolvedb

import (
	"github.com/hlop3z/evolvedb/internal/catalog"
	"github.com/hlop3z/evolvedb/internal/engine"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// ColumnType enumerates the storage types a column can be promoted to.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeJSONB     ColumnType = "jsonb"
	TypeTimestamp ColumnType = "timestamp"
	TypeBoolean   ColumnType = "boolean"
	TypeInteger   ColumnType = "integer"
)

// IndexColumn is one column of an index definition, with sort direction.
type IndexColumn struct {
	Name string `yaml:"name"`
	Desc bool   `yaml:"desc"`
}

// IndexDef declares a secondary index.
type IndexDef struct {
	Name          string            `yaml:"name"`
	Table         string            `yaml:"table"`
	Columns       []IndexColumn     `yaml:"columns"`
	Unique        bool              `yaml:"unique"`
	Concurrent    bool              `yaml:"concurrent"`
	Method        string            `yaml:"method"`
	Where         string            `yaml:"where"`
	StorageParams map[string]string `yaml:"storage_params"`
	Tablespace    string            `yaml:"tablespace"`
}

func (d IndexDef) toSchema() schema.Index {
	cols := make([]schema.IndexColumn, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = schema.IndexColumn{Name: c.Name, Desc: c.Desc}
	}
	return schema.Index{
		Name:          d.Name,
		Table:         d.Table,
		Columns:       cols,
		Unique:        d.Unique,
		Concurrent:    d.Concurrent,
		Method:        d.Method,
		Where:         d.Where,
		StorageParams: d.StorageParams,
		Tablespace:    d.Tablespace,
	}
}

func toSchemaIndexes(defs []IndexDef) []schema.Index {
	if len(defs) == 0 {
		return nil
	}
	out := make([]schema.Index, len(defs))
	for i, d := range defs {
		out[i] = d.toSchema()
	}
	return out
}

// IndexInfo describes one existing index.
type IndexInfo struct {
	Name       string
	Table      string
	Columns    []string
	Unique     bool
	SizeBytes  int64
	Definition string
}

// IndexDetails extends IndexInfo with access method and usage counters.
// Counters are zero on dialects that do not track them.
type IndexDetails struct {
	IndexInfo
	Method        string
	Scans         int64
	TuplesRead    int64
	TuplesFetched int64
}

func toIndexInfo(in catalog.IndexInfo) IndexInfo {
	return IndexInfo{
		Name:       in.Name,
		Table:      in.Table,
		Columns:    in.Columns,
		Unique:     in.Unique,
		SizeBytes:  in.SizeBytes,
		Definition: in.Definition,
	}
}

// PromoteResult reports a column type promotion.
type PromoteResult struct {
	// Migrated is true when the column type was actually changed.
	Migrated bool

	// PreviousType is the type the column had before, when Migrated.
	PreviousType string
}

// DedupResult reports a deduplication run. DuplicatesRemoved counts resolved
// duplicate groups, not deleted rows.
type DedupResult struct {
	Success           bool
	DuplicatesRemoved int
}

// KeepPolicy names the columns deciding which row of a duplicate group
// survives. See DefaultKeepPolicy for the usual choice.
type KeepPolicy struct {
	CompletionColumn string
	UpdatedColumn    string
	CreatedColumn    string
}

// DefaultKeepPolicy prefers rows with a non-null ended_at, then the greater
// updated_at, then the greater created_at.
func DefaultKeepPolicy() KeepPolicy {
	return KeepPolicy{
		CompletionColumn: "ended_at",
		UpdatedColumn:    "updated_at",
		CreatedColumn:    "created_at",
	}
}

func (p KeepPolicy) toEngine() engine.KeepPolicy {
	return engine.KeepPolicy{
		CompletionColumn: p.CompletionColumn,
		UpdatedColumn:    p.UpdatedColumn,
		CreatedColumn:    p.CreatedColumn,
	}
}
