package schema

import (
	"regexp"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
)

// Physical is a resolved, schema-qualified table identifier. It is produced
// once per process by the name router and is always already sanitized.
type Physical struct {
	Schema string
	Table  string
}

// String returns the unquoted dotted form for logs and error context.
func (p Physical) String() string {
	if p.Schema == "" {
		return p.Table
	}
	return p.Schema + "." + p.Table
}

// IndexColumn is one (name, direction) pair of an index definition.
type IndexColumn struct {
	Name string `yaml:"name"`
	Desc bool   `yaml:"desc"`
}

// Index is a secondary index definition. Name must be unique per namespace.
type Index struct {
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

// Validate sanitizes every identifier the definition will interpolate and
// screens the WHERE predicate, which is raw SQL by necessity.
func (ix *Index) Validate() error {
	names := []string{ix.Name, ix.Table}
	if ix.Method != "" {
		names = append(names, ix.Method)
	}
	if ix.Tablespace != "" {
		names = append(names, ix.Tablespace)
	}
	if err := ident.SanitizeAll(names...); err != nil {
		return err
	}
	if len(ix.Columns) == 0 {
		return everr.New(everr.ErrInvalidIdentifier, "index requires at least one column").
			WithIndex(ix.Name)
	}
	for _, c := range ix.Columns {
		if _, err := ident.Sanitize(c.Name); err != nil {
			return err
		}
	}
	for k, v := range ix.StorageParams {
		if _, err := ident.Sanitize(k); err != nil {
			return err
		}
		if !storageValuePattern.MatchString(v) {
			return everr.Newf(everr.ErrInvalidIdentifier,
				"unsafe storage parameter value %q", v).
				WithIndex(ix.Name)
		}
	}
	return ValidateExpression(ix.Where)
}

// storageValuePattern matches safe storage parameter values (numbers, plain
// words, dotted floats such as autovacuum scale factors).
var storageValuePattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// dangerousExprPattern matches SQL injection patterns in raw expressions.
// Identifiers cannot appear here, so the screen is coarse on purpose: no
// statement separators, no comments, no DDL/DML keywords.
var dangerousExprPattern = regexp.MustCompile(
	`(?i)(;|--|/\*|\b(DROP|ALTER|CREATE|GRANT|REVOKE|TRUNCATE|INSERT|UPDATE|DELETE|EXEC|EXECUTE|UNION|INTO|COPY|pg_read_file|lo_import|pg_sleep)\b)`,
)

// ValidateExpression checks a raw SQL expression (partial-index predicate,
// storage parameter value) for dangerous patterns.
func ValidateExpression(expr string) error {
	if expr == "" {
		return nil
	}
	if dangerousExprPattern.MatchString(expr) {
		return everr.New(everr.ErrInvalidIdentifier,
			"SQL expression contains potentially dangerous pattern").
			With("expression", expr).
			WithHelp("expressions must not contain ';', '--', '/*', or DDL/DML keywords")
	}
	return nil
}
