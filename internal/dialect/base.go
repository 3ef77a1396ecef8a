package dialect

import (
	"sort"
	"strings"

	"github.com/hlop3z/evolvedb/internal/schema"
)

// QuoteIdentFunc quotes an identifier for a specific dialect.
type QuoteIdentFunc func(string) string

// typeSQLFunc maps a column to its SQL storage type.
type typeSQLFunc func(schema.Column) string

// defaultSQLFunc maps a column to its DEFAULT expression ("" for none).
type defaultSQLFunc func(schema.Column) string

// buildColumnSQL generates one column definition for CREATE TABLE or
// ADD COLUMN: quoted name, type, NOT NULL, DEFAULT.
func buildColumnSQL(col schema.Column, quote QuoteIdentFunc, typeSQL typeSQLFunc, defaultSQL defaultSQLFunc) string {
	var b strings.Builder

	b.WriteString(quote(col.Name))
	b.WriteString(" ")
	b.WriteString(typeSQL(col))

	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}

	if def := defaultSQL(col); def != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}

	return b.String()
}

// buildCreateTableSQL generates CREATE TABLE IF NOT EXISTS with the physical
// column set and a table-level PRIMARY KEY when one or more columns declare it.
func buildCreateTableSQL(qualified string, cols []schema.Column, quote QuoteIdentFunc, typeSQL typeSQLFunc, defaultSQL defaultSQLFunc) string {
	var b strings.Builder

	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(qualified)
	b.WriteString(" (\n")

	var parts []string
	var pk []string
	for _, col := range cols {
		parts = append(parts, "    "+buildColumnSQL(col, quote, typeSQL, defaultSQL))
		if col.PrimaryKey {
			pk = append(pk, quote(col.Name))
		}
	}
	if len(pk) > 0 {
		parts = append(parts, "    PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}

	b.WriteString(strings.Join(parts, ",\n"))
	b.WriteString("\n)")

	return b.String()
}

// IndexSQLOpts captures the dialect differences in CREATE INDEX syntax.
type IndexSQLOpts struct {
	Concurrent         bool // effective build mode
	SupportsMethod     bool // USING <method>
	SupportsStorage    bool // WITH (<params>)
	SupportsTablespace bool // TABLESPACE <name>
}

// buildCreateIndexSQL generates CREATE [UNIQUE] INDEX [CONCURRENTLY]
// IF NOT EXISTS name ON table [USING method] (cols [DESC]) [WITH (...)]
// [TABLESPACE t] [WHERE predicate] per the dialect's capabilities.
func buildCreateIndexSQL(qualifiedTable string, ix *schema.Index, quote QuoteIdentFunc, opts IndexSQLOpts) string {
	var b strings.Builder

	b.WriteString("CREATE ")
	if ix.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if opts.Concurrent {
		b.WriteString("CONCURRENTLY ")
	}
	b.WriteString("IF NOT EXISTS ")
	b.WriteString(quote(ix.Name))
	b.WriteString(" ON ")
	b.WriteString(qualifiedTable)

	if opts.SupportsMethod && ix.Method != "" {
		b.WriteString(" USING ")
		b.WriteString(ix.Method)
	}

	b.WriteString(" (")
	for i, col := range ix.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(col.Name))
		if col.Desc {
			b.WriteString(" DESC")
		}
	}
	b.WriteString(")")

	if opts.SupportsStorage && len(ix.StorageParams) > 0 {
		keys := make([]string, 0, len(ix.StorageParams))
		for k := range ix.StorageParams {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" WITH (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(" = ")
			b.WriteString(ix.StorageParams[k])
		}
		b.WriteString(")")
	}

	if opts.SupportsTablespace && ix.Tablespace != "" {
		b.WriteString(" TABLESPACE ")
		b.WriteString(quote(ix.Tablespace))
	}

	if ix.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(ix.Where)
	}

	return b.String()
}

// quoteEscape doubles embedded quote characters for identifier quoting.
func quoteEscape(name string) string {
	return strings.ReplaceAll(name, `"`, `""`)
}

// containsAny reports whether the lowercased error text contains any needle.
// SQLite exposes no stable error codes through database/sql, so classification
// falls back to message matching there.
func containsAny(err error, needles ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, n := range needles {
		if strings.Contains(msg, n) {
			return true
		}
	}
	return false
}
