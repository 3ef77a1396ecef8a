package dialect

import (
	"fmt"
	"strings"

	"github.com/hlop3z/evolvedb/internal/schema"
)

// sqlite implements the Dialect interface for SQLite. It is the embedded and
// development dialect; production multi-tenant deployments run PostgreSQL.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Identifiers and placeholders
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return `"` + quoteEscape(name) + `"`
}

// QualifyTable folds the namespace into the table name as a prefix since
// SQLite has no schema namespaces.
func (d *sqlite) QualifyTable(p schema.Physical) string {
	if p.Schema == "" {
		return d.QuoteIdent(p.Table)
	}
	return d.QuoteIdent(p.Schema + "_" + p.Table)
}

func (d *sqlite) Placeholder(index int) string {
	return "?"
}

func (d *sqlite) RowID() string {
	return "rowid"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *sqlite) TypeSQL(col schema.Column) string {
	switch col.Type {
	case schema.TypeText, schema.TypeJSONB:
		return "TEXT"
	case schema.TypeTimestamp:
		// RFC 3339 text; lexicographic order matches chronological order.
		return "TEXT"
	case schema.TypeBoolean, schema.TypeInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// TypeName returns the declared type PRAGMA table_info reports, which for
// SQLite is exactly what CREATE TABLE wrote.
func (d *sqlite) TypeName(t schema.ColumnType) string {
	return d.TypeSQL(schema.Column{Type: t})
}

func (d *sqlite) DefaultSQL(col schema.Column) string {
	if col.Nullable {
		return ""
	}
	switch col.Type {
	case schema.TypeTimestamp:
		return "CURRENT_TIMESTAMP"
	case schema.TypeJSONB:
		return "'{}'"
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *sqlite) SupportsNamespaces() bool {
	return false
}

func (d *sqlite) SupportsConcurrentIndex() bool {
	return false
}

func (d *sqlite) SupportsColumnTypeChange() bool {
	return false
}

// -----------------------------------------------------------------------------
// DDL generation
// -----------------------------------------------------------------------------

func (d *sqlite) CreateSchemaSQL(name string) string {
	return ""
}

func (d *sqlite) CreateTableSQL(p schema.Physical, cols []schema.Column) string {
	return buildCreateTableSQL(d.QualifyTable(p), cols, d.QuoteIdent, d.TypeSQL, d.DefaultSQL)
}

// AddColumnSQL keeps NOT NULL only when the column carries a constant default.
// SQLite rejects ADD COLUMN with a non-constant default such as
// CURRENT_TIMESTAMP, and NOT NULL without any default fails on populated
// tables; additive evolution wins over the null constraint in both cases.
func (d *sqlite) AddColumnSQL(p schema.Physical, col schema.Column) string {
	added := col
	if !col.Nullable {
		switch d.DefaultSQL(col) {
		case "", "CURRENT_TIMESTAMP":
			added.Nullable = true
		}
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		d.QualifyTable(p), buildColumnSQL(added, d.QuoteIdent, d.TypeSQL, d.DefaultSQL))
}

func (d *sqlite) AlterColumnTypeSQL(p schema.Physical, column string, target schema.ColumnType) string {
	// SQLite has no ALTER COLUMN TYPE; SupportsColumnTypeChange gates this.
	return ""
}

// AddUniqueConstraintSQL uses a unique index: SQLite has no ALTER TABLE
// ADD CONSTRAINT, and a unique index enforces the same invariant.
func (d *sqlite) AddUniqueConstraintSQL(p schema.Physical, name string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
		d.QuoteIdent(name), d.QualifyTable(p), strings.Join(quoted, ", "))
}

func (d *sqlite) CreateIndexSQL(p schema.Physical, ix *schema.Index, concurrent bool) string {
	return buildCreateIndexSQL(d.QualifyTable(p), ix, d.QuoteIdent, IndexSQLOpts{})
}

func (d *sqlite) DropIndexSQL(namespace, name string) string {
	return "DROP INDEX IF EXISTS " + d.QuoteIdent(name)
}

// ShadowSyncSQL returns nil: SQLite triggers cannot assign NEW columns before
// write without recursive-trigger hazards, and the dev dialect does not need
// the backward-compatibility shadow maintenance.
func (d *sqlite) ShadowSyncSQL(p schema.Physical, baseColumns []string) []string {
	return nil
}

// -----------------------------------------------------------------------------
// Error classification
// -----------------------------------------------------------------------------

func (d *sqlite) IsAlreadyExists(err error) bool {
	return containsAny(err, "already exists", "duplicate column name")
}

func (d *sqlite) IsInsufficientPrivilege(err error) bool {
	return containsAny(err, "attempt to write a readonly database")
}

func (d *sqlite) IsCastError(err error) bool {
	// SQLite's flexible typing never rejects a stored value on type grounds.
	return false
}

func (d *sqlite) IsConcurrentBuildForbidden(err error) bool {
	return false
}

func (d *sqlite) IsUniqueViolation(err error) bool {
	return containsAny(err, "unique constraint failed")
}
