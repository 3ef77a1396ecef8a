// Package schema defines the declarative column schema each storage domain
// declares for its tables. Logical tables are compile-time constants and are
// independent of physical naming; the engine resolves physical identifiers
// separately.
package schema

import (
	"sort"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
)

// ColumnType enumerates the storage types a domain may declare.
type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeJSONB     ColumnType = "jsonb"
	TypeTimestamp ColumnType = "timestamp"
	TypeBoolean   ColumnType = "boolean"
	TypeInteger   ColumnType = "integer"
)

// ShadowSuffix is appended to every timestamp column name to derive its
// timezone-correct shadow column. The base column is retained read-only for
// backward compatibility.
const ShadowSuffix = "Z"

// Column is one declared column of a logical table. Shadow marks derived
// timezone-correct companions of timestamp columns; domains never declare
// shadows directly.
type Column struct {
	Name       string
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
	Shadow     bool
}

// LogicalTable is a named, declared set of columns, defined statically by each
// domain module.
type LogicalTable struct {
	Name    string
	Columns []Column
}

// ColumnSpec is the declarative map form of a column, as supplied by domain
// modules: logical table name -> column name -> spec.
type ColumnSpec struct {
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	PrimaryKey bool   `yaml:"primary_key"`
}

// validTypes guards the declarative input; anything else is a definition bug.
var validTypes = map[ColumnType]bool{
	TypeText:      true,
	TypeJSONB:     true,
	TypeTimestamp: true,
	TypeBoolean:   true,
	TypeInteger:   true,
}

// Valid reports whether t is one of the declared storage types.
func (t ColumnType) Valid() bool {
	return validTypes[t]
}

// ShadowName derives the shadow column name for a timestamp column.
func ShadowName(base string) string {
	return base + ShadowSuffix
}

// IsShadowOf reports whether name is the shadow column of base.
func IsShadowOf(name, base string) bool {
	return name == base+ShadowSuffix
}

// FromMap converts the declarative map form into a LogicalTable with a
// deterministic column order: primary key columns first, then the rest, both
// groups sorted by name. Every name is sanitized here, before any DDL use.
func FromMap(table string, cols map[string]ColumnSpec) (*LogicalTable, error) {
	if _, err := ident.Sanitize(table); err != nil {
		return nil, err
	}

	lt := &LogicalTable{Name: table}
	for name, spec := range cols {
		if _, err := ident.Sanitize(name); err != nil {
			return nil, err
		}
		ct := ColumnType(spec.Type)
		if !validTypes[ct] {
			return nil, everr.Newf(everr.ErrInvalidIdentifier,
				"unsupported column type %q", spec.Type).
				WithTable("", table).
				WithColumn(name)
		}
		lt.Columns = append(lt.Columns, Column{
			Name:       name,
			Type:       ct,
			Nullable:   spec.Nullable,
			PrimaryKey: spec.PrimaryKey,
		})
	}

	sort.Slice(lt.Columns, func(i, j int) bool {
		a, b := lt.Columns[i], lt.Columns[j]
		if a.PrimaryKey != b.PrimaryKey {
			return a.PrimaryKey
		}
		return a.Name < b.Name
	})

	return lt, nil
}

// Validate checks a hand-built LogicalTable the same way FromMap does.
func (t *LogicalTable) Validate() error {
	if _, err := ident.Sanitize(t.Name); err != nil {
		return err
	}
	for _, c := range t.Columns {
		if _, err := ident.Sanitize(c.Name); err != nil {
			return err
		}
		if !validTypes[c.Type] {
			return everr.Newf(everr.ErrInvalidIdentifier,
				"unsupported column type %q", c.Type).
				WithTable("", t.Name).
				WithColumn(c.Name)
		}
	}
	return nil
}

// Column returns the declared column with the given name, or nil.
func (t *LogicalTable) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// RequiredColumns returns the full physical column set the table must carry:
// every declared column plus one shadow column per timestamp column.
func (t *LogicalTable) RequiredColumns() []Column {
	out := make([]Column, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		out = append(out, c)
		if c.Type == TypeTimestamp {
			out = append(out, Column{
				Name:     ShadowName(c.Name),
				Type:     TypeTimestamp,
				Nullable: c.Nullable,
				Shadow:   true,
			})
		}
	}
	return out
}
