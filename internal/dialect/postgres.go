package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/hlop3z/evolvedb/internal/schema"
)

// PostgreSQL error codes the engine makes decisions on.
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgDuplicateSchema       = "42P06"
	pgDuplicateTable        = "42P07"
	pgDuplicateColumn       = "42701"
	pgDuplicateObject       = "42710"
	pgInsufficientPrivilege = "42501"
	pgDatatypeMismatch      = "42804"
	pgCannotCoerce          = "42846"
	pgInvalidTextRep        = "22P02"
	pgActiveSQLTransaction  = "25001"
	pgUniqueViolation       = "23505"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Identifiers and placeholders
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return `"` + quoteEscape(name) + `"`
}

func (d *postgres) QualifyTable(p schema.Physical) string {
	if p.Schema == "" {
		return d.QuoteIdent(p.Table)
	}
	return d.QuoteIdent(p.Schema) + "." + d.QuoteIdent(p.Table)
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

func (d *postgres) RowID() string {
	return "ctid"
}

// -----------------------------------------------------------------------------
// Type mappings
// -----------------------------------------------------------------------------

func (d *postgres) TypeSQL(col schema.Column) string {
	switch col.Type {
	case schema.TypeText:
		return "TEXT"
	case schema.TypeJSONB:
		return "JSONB"
	case schema.TypeTimestamp:
		if col.Shadow {
			return "TIMESTAMPTZ"
		}
		return "TIMESTAMP"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func (d *postgres) TypeName(t schema.ColumnType) string {
	switch t {
	case schema.TypeText:
		return "text"
	case schema.TypeJSONB:
		return "jsonb"
	case schema.TypeTimestamp:
		return "timestamp without time zone"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeInteger:
		return "integer"
	default:
		return string(t)
	}
}

func (d *postgres) DefaultSQL(col schema.Column) string {
	if col.Nullable {
		return ""
	}
	switch col.Type {
	case schema.TypeTimestamp:
		return "now()"
	case schema.TypeJSONB:
		return "'{}'::jsonb"
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------
// Feature support
// -----------------------------------------------------------------------------

func (d *postgres) SupportsNamespaces() bool {
	return true
}

func (d *postgres) SupportsConcurrentIndex() bool {
	return true
}

func (d *postgres) SupportsColumnTypeChange() bool {
	return true
}

// -----------------------------------------------------------------------------
// DDL generation
// -----------------------------------------------------------------------------

func (d *postgres) CreateSchemaSQL(name string) string {
	return "CREATE SCHEMA IF NOT EXISTS " + d.QuoteIdent(name)
}

func (d *postgres) CreateTableSQL(p schema.Physical, cols []schema.Column) string {
	return buildCreateTableSQL(d.QualifyTable(p), cols, d.QuoteIdent, d.TypeSQL, d.DefaultSQL)
}

func (d *postgres) AddColumnSQL(p schema.Physical, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s",
		d.QualifyTable(p), buildColumnSQL(col, d.QuoteIdent, d.TypeSQL, d.DefaultSQL))
}

func (d *postgres) AlterColumnTypeSQL(p schema.Physical, column string, target schema.ColumnType) string {
	sqlType := d.TypeSQL(schema.Column{Type: target})
	col := d.QuoteIdent(column)
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s",
		d.QualifyTable(p), col, sqlType, col, sqlType)
}

func (d *postgres) AddUniqueConstraintSQL(p schema.Physical, name string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
		d.QualifyTable(p), d.QuoteIdent(name), strings.Join(quoted, ", "))
}

func (d *postgres) CreateIndexSQL(p schema.Physical, ix *schema.Index, concurrent bool) string {
	return buildCreateIndexSQL(d.QualifyTable(p), ix, d.QuoteIdent, IndexSQLOpts{
		Concurrent:         concurrent,
		SupportsMethod:     true,
		SupportsStorage:    true,
		SupportsTablespace: true,
	})
}

func (d *postgres) DropIndexSQL(namespace, name string) string {
	if namespace == "" {
		return "DROP INDEX IF EXISTS " + d.QuoteIdent(name)
	}
	return "DROP INDEX IF EXISTS " + d.QuoteIdent(namespace) + "." + d.QuoteIdent(name)
}

// ShadowSyncSQL builds a trigger function assigning each shadow column from its
// base column on insert and update. The base column is interpreted as UTC; the
// shadow carries the timezone-correct value.
func (d *postgres) ShadowSyncSQL(p schema.Physical, baseColumns []string) []string {
	if len(baseColumns) == 0 {
		return nil
	}

	fnName := p.Table + "_tsz_sync"
	trgName := p.Table + "_tsz_sync_trg"
	qualified := d.QualifyTable(p)

	var fn schema.Physical
	fn.Schema = p.Schema
	fn.Table = fnName

	var assigns []string
	for _, base := range baseColumns {
		assigns = append(assigns, fmt.Sprintf("    NEW.%s = NEW.%s AT TIME ZONE 'UTC';",
			d.QuoteIdent(schema.ShadowName(base)), d.QuoteIdent(base)))
	}

	createFn := fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
%s
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`, d.QualifyTable(fn), strings.Join(assigns, "\n"))

	dropTrg := fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", d.QuoteIdent(trgName), qualified)

	createTrg := fmt.Sprintf("CREATE TRIGGER %s BEFORE INSERT OR UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
		d.QuoteIdent(trgName), qualified, d.QualifyTable(fn))

	return []string{createFn, dropTrg, createTrg}
}

// -----------------------------------------------------------------------------
// Error classification
// -----------------------------------------------------------------------------

// pqCode extracts the SQLSTATE code from a pq error, if err is one.
func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func (d *postgres) IsAlreadyExists(err error) bool {
	switch pqCode(err) {
	case pgDuplicateSchema, pgDuplicateTable, pgDuplicateColumn, pgDuplicateObject:
		return true
	}
	return containsAny(err, "already exists")
}

func (d *postgres) IsInsufficientPrivilege(err error) bool {
	return pqCode(err) == pgInsufficientPrivilege ||
		containsAny(err, "permission denied", "insufficient privilege")
}

func (d *postgres) IsCastError(err error) bool {
	switch pqCode(err) {
	case pgDatatypeMismatch, pgCannotCoerce, pgInvalidTextRep:
		return true
	}
	return containsAny(err, "cannot be cast", "invalid input syntax")
}

func (d *postgres) IsConcurrentBuildForbidden(err error) bool {
	return pqCode(err) == pgActiveSQLTransaction ||
		containsAny(err, "concurrently cannot run inside a transaction")
}

func (d *postgres) IsUniqueViolation(err error) bool {
	return pqCode(err) == pgUniqueViolation ||
		containsAny(err, "duplicate key value violates unique constraint")
}
