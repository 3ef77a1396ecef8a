// Package dialect provides database-specific SQL generation for the schema
// engine. Each dialect implements type mappings from the declarative column
// schema to SQL, identifier quoting, DDL statement generation, and error
// classification for the idempotence decisions the engine has to make.
package dialect

import (
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Dialect defines the interface for database-specific SQL generation.
// Implementations exist for PostgreSQL and SQLite.
type Dialect interface {
	// Name returns the dialect name (postgres, sqlite).
	Name() string

	// -------------------------------------------------------------------------
	// Identifiers and placeholders
	// -------------------------------------------------------------------------

	// QuoteIdent quotes an identifier (table/column name) for the dialect.
	QuoteIdent(name string) string

	// QualifyTable returns the quoted, schema-qualified table reference.
	// PostgreSQL: "ns"."table". SQLite has no schemas; the namespace is folded
	// into the table name as a prefix.
	QualifyTable(p schema.Physical) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// PostgreSQL: $1, $2, ... SQLite: ?, ?, ...
	Placeholder(index int) string

	// RowID returns the physical row identifier column usable as a final
	// deterministic tiebreak (PostgreSQL: ctid, SQLite: rowid).
	RowID() string

	// -------------------------------------------------------------------------
	// Type mappings
	// -------------------------------------------------------------------------

	// TypeSQL returns the SQL storage type for a declared column. Shadow
	// timestamp columns map to the timezone-aware type where one exists.
	TypeSQL(col schema.Column) string

	// TypeName returns the catalog-reported canonical name for a column type,
	// used to decide whether a live column already matches a promotion target.
	TypeName(t schema.ColumnType) string

	// DefaultSQL returns the DEFAULT clause expression for a column, or ""
	// when the column carries no default. Non-nullable timestamps default to
	// the current time, non-nullable jsonb to the empty document.
	DefaultSQL(col schema.Column) string

	// -------------------------------------------------------------------------
	// Feature support
	// -------------------------------------------------------------------------

	// SupportsNamespaces reports whether the engine has real schema namespaces.
	SupportsNamespaces() bool

	// SupportsConcurrentIndex reports whether CREATE INDEX CONCURRENTLY exists.
	SupportsConcurrentIndex() bool

	// SupportsColumnTypeChange reports whether ALTER COLUMN ... TYPE exists.
	SupportsColumnTypeChange() bool

	// -------------------------------------------------------------------------
	// DDL generation
	// -------------------------------------------------------------------------

	// CreateSchemaSQL generates CREATE SCHEMA for the namespace manager.
	// Dialects without namespaces return "".
	CreateSchemaSQL(name string) string

	// CreateTableSQL generates CREATE TABLE IF NOT EXISTS with the full
	// physical column set (declared plus shadows) and the primary key.
	CreateTableSQL(p schema.Physical, cols []schema.Column) string

	// AddColumnSQL generates the additive ALTER TABLE ADD COLUMN statement.
	AddColumnSQL(p schema.Physical, col schema.Column) string

	// AlterColumnTypeSQL generates the in-place type promotion statement using
	// the engine's native cast to preserve values.
	AlterColumnTypeSQL(p schema.Physical, column string, target schema.ColumnType) string

	// AddUniqueConstraintSQL generates the statement tightening row uniqueness
	// on the key columns. SQLite has no ADD CONSTRAINT; it uses a unique index.
	AddUniqueConstraintSQL(p schema.Physical, name string, columns []string) string

	// CreateIndexSQL generates CREATE [UNIQUE] INDEX [CONCURRENTLY]. The
	// concurrent argument is the effective build mode after the engine's
	// fallback decision, not the requested one.
	CreateIndexSQL(p schema.Physical, ix *schema.Index, concurrent bool) string

	// DropIndexSQL generates DROP INDEX IF EXISTS.
	DropIndexSQL(namespace, name string) string

	// ShadowSyncSQL generates the best-effort trigger statements keeping
	// shadow timestamp columns in step with their base columns on write.
	// Returns nil when the dialect has no workable trigger form.
	ShadowSyncSQL(p schema.Physical, baseColumns []string) []string

	// -------------------------------------------------------------------------
	// Error classification
	// -------------------------------------------------------------------------

	// IsAlreadyExists reports whether err is a duplicate-object error
	// (schema, table, column, constraint or index already present). The
	// engine treats these as success: idempotence, not locking.
	IsAlreadyExists(err error) bool

	// IsInsufficientPrivilege reports whether err is a privilege failure.
	IsInsufficientPrivilege(err error) bool

	// IsCastError reports whether err is the engine rejecting a column cast.
	IsCastError(err error) bool

	// IsConcurrentBuildForbidden reports whether err means a concurrent index
	// build was attempted in a context that forbids it (e.g. inside a
	// transaction), in which case the engine retries with a blocking build.
	IsConcurrentBuildForbidden(err error) bool

	// IsUniqueViolation reports whether err is a uniqueness violation. The
	// gate converts these to a migration-required error, never surfaces them.
	IsUniqueViolation(err error) bool
}

// Get returns the dialect implementation for the given name.
// Valid names: "postgres", "postgresql", "sqlite", "sqlite3".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch name {
	case "postgres", "postgresql":
		return Postgres()
	case "sqlite", "sqlite3":
		return SQLite()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"postgres", "sqlite"}
}
