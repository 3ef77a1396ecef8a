// Package catalog queries database system catalogs for the live state the
// engine diffs against: namespaces, tables, columns, constraints and indexes.
// It never mutates anything; all DDL goes through the engine.
package catalog

import (
	"context"
	"database/sql"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// IndexInfo describes one secondary index as reported by the catalog.
type IndexInfo struct {
	Name       string
	Table      string
	Columns    []string // ordered as in the index definition
	Unique     bool
	SizeBytes  int64
	Definition string
}

// IndexDetails extends IndexInfo with the access method and cumulative usage
// counters, for describe operations.
type IndexDetails struct {
	IndexInfo
	Method        string
	Scans         int64
	TuplesRead    int64
	TuplesFetched int64
}

// Catalog reads live schema state for one dialect.
type Catalog interface {
	// SchemaExists reports whether the namespace exists. Dialects without
	// namespaces always report true.
	SchemaExists(ctx context.Context, name string) (bool, error)

	// TableExists reports whether the physical table exists.
	TableExists(ctx context.Context, p schema.Physical) (bool, error)

	// Columns returns the live column names of the table, in ordinal order.
	Columns(ctx context.Context, p schema.Physical) ([]string, error)

	// ColumnType returns the catalog-reported type of one column and whether
	// the column exists at all.
	ColumnType(ctx context.Context, p schema.Physical, column string) (string, bool, error)

	// ConstraintExists reports whether a named constraint exists on the table.
	ConstraintExists(ctx context.Context, p schema.Physical, name string) (bool, error)

	// IndexExists reports whether a named index exists in the namespace.
	IndexExists(ctx context.Context, namespace, name string) (bool, error)

	// ListIndexes returns every secondary index in the namespace, optionally
	// restricted to one physical table name ("" for all).
	ListIndexes(ctx context.Context, namespace, table string) ([]IndexInfo, error)

	// DescribeIndex returns full details for one index, or nil if absent.
	DescribeIndex(ctx context.Context, namespace, name string) (*IndexDetails, error)
}

// New creates a Catalog for the given dialect.
// Returns nil if the dialect is not supported.
func New(db *sql.DB, d dialect.Dialect) Catalog {
	switch d.Name() {
	case "postgres":
		return &postgresCatalog{db: db, dialect: d}
	case "sqlite":
		return &sqliteCatalog{db: db, dialect: d}
	default:
		return nil
	}
}
