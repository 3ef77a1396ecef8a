// Package ident validates table and column names before they are interpolated
// into DDL text. Values are always bound through placeholders; identifiers cannot
// be, so this package is the sole defense against identifier injection.
package ident

import (
	"regexp"
	"strings"

	"github.com/hlop3z/evolvedb/internal/everr"
)

// MaxLength is the PostgreSQL identifier length limit (NAMEDATALEN - 1).
const MaxLength = 63

// identRegex matches safe identifiers: letters, digits and underscores only,
// not starting with a digit. Anything else (quotes, semicolons, whitespace,
// dollar signs) is rejected outright.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWords contains SQL reserved words from the SQL standard plus the
// PostgreSQL and SQLite specific sets. A reserved word is never a safe
// identifier even when it matches the character rules.
var reservedWords = map[string]bool{
	// SQL standard keywords
	"add": true, "all": true, "alter": true, "and": true, "any": true,
	"as": true, "asc": true, "between": true, "by": true, "case": true,
	"check": true, "column": true, "constraint": true, "create": true,
	"cross": true, "current": true, "database": true, "default": true,
	"delete": true, "desc": true, "distinct": true, "drop": true,
	"else": true, "end": true, "exists": true, "false": true, "fetch": true,
	"for": true, "foreign": true, "from": true, "full": true, "grant": true,
	"group": true, "having": true, "if": true, "in": true, "index": true,
	"inner": true, "insert": true, "into": true, "is": true, "join": true,
	"key": true, "left": true, "like": true, "limit": true, "not": true,
	"null": true, "offset": true, "on": true, "or": true, "order": true,
	"outer": true, "primary": true, "references": true, "revoke": true,
	"right": true, "select": true, "set": true, "table": true, "then": true,
	"to": true, "true": true, "union": true, "unique": true, "update": true,
	"using": true, "values": true, "view": true, "when": true, "where": true,
	"with": true,

	// PostgreSQL specific
	"abort": true, "analyze": true, "array": true, "begin": true,
	"cast": true, "commit": true, "copy": true, "do": true, "except": true,
	"explain": true, "freeze": true, "ilike": true, "intersect": true,
	"isnull": true, "lateral": true, "leading": true, "localtime": true,
	"lock": true, "natural": true, "notnull": true, "only": true,
	"placing": true, "returning": true, "rollback": true, "row": true,
	"savepoint": true, "similar": true, "some": true, "symmetric": true,
	"trailing": true, "truncate": true, "user": true, "vacuum": true,
	"variadic": true, "verbose": true, "window": true,

	// SQLite specific
	"action": true, "after": true, "attach": true, "conflict": true,
	"detach": true, "fail": true, "glob": true, "indexed": true,
	"instead": true, "plan": true, "pragma": true, "query": true,
	"raise": true, "reindex": true, "temp": true, "temporary": true,
	"virtual": true,
}

// IsReservedWord checks if the given string is a SQL reserved word.
// The check is case-insensitive.
func IsReservedWord(s string) bool {
	return reservedWords[strings.ToLower(s)]
}

// Valid reports whether s would pass Sanitize.
func Valid(s string) bool {
	return s != "" && len(s) <= MaxLength && identRegex.MatchString(s) && !IsReservedWord(s)
}

// Sanitize validates name for use as a table, column, index or namespace
// identifier and returns it unchanged on success. It fails with
// ErrInvalidIdentifier or ErrReservedWord otherwise; callers must not
// interpolate any name that did not pass.
func Sanitize(name string) (string, error) {
	if name == "" {
		return "", everr.New(everr.ErrInvalidIdentifier, "identifier cannot be empty")
	}

	if len(name) > MaxLength {
		return "", everr.Newf(everr.ErrInvalidIdentifier,
			"identifier exceeds maximum length of %d characters", MaxLength).
			With("identifier", name).
			With("length", len(name))
	}

	if !identRegex.MatchString(name) {
		return "", everr.New(everr.ErrInvalidIdentifier,
			"identifier may contain only letters, digits and underscores").
			With("identifier", name)
	}

	if IsReservedWord(name) {
		return "", everr.Newf(everr.ErrReservedWord, "'%s' is a SQL reserved word", name).
			With("identifier", name).
			With("suggestion", name+"_col")
	}

	return name, nil
}

// SanitizeAll sanitizes every name in order and returns the first failure.
func SanitizeAll(names ...string) error {
	for _, n := range names {
		if _, err := Sanitize(n); err != nil {
			return err
		}
	}
	return nil
}
