package engine

import (
	"context"
	"strings"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// KeepPolicy names the columns deciding which row of a duplicate group
// survives: a row with a non-null completion marker beats one without, then
// the greater updated timestamp wins, then the greater created timestamp.
// A finished record is the strongest signal of authority; recency of update
// is the next best; creation order is a deterministic last resort.
// Policy columns absent from the table are skipped.
type KeepPolicy struct {
	CompletionColumn string
	UpdatedColumn    string
	CreatedColumn    string
}

// DefaultKeepPolicy returns the policy observed on the spans table. Domains
// with a different notion of the authoritative row pass their own.
func DefaultKeepPolicy() KeepPolicy {
	return KeepPolicy{
		CompletionColumn: "ended_at",
		UpdatedColumn:    "updated_at",
		CreatedColumn:    "created_at",
	}
}

func (p KeepPolicy) columns() []string {
	var cols []string
	for _, c := range []string{p.CompletionColumn, p.UpdatedColumn, p.CreatedColumn} {
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// DedupResult reports a deduplication run. DuplicatesRemoved counts resolved
// groups, not rows deleted.
type DedupResult struct {
	Success           bool
	DuplicatesRemoved int
}

// Deduplicator resolves legacy duplicate rows before a uniqueness constraint
// tightens. Duplicate groups are computed on demand and never persisted.
type Deduplicator struct {
	*core
}

func newDeduplicator(c *core) *Deduplicator {
	return &Deduplicator{core: c}
}

// Deduplicate groups existing rows by keyColumns and deletes every row of
// each group except the one the keep policy selects. After success every
// group has exactly one surviving row. The operation is idempotent; rerunning
// it after a crash safely resumes.
func (d *Deduplicator) Deduplicate(ctx context.Context, table string, keyColumns []string, policy KeepPolicy) (DedupResult, error) {
	p, err := d.router.Resolve(table)
	if err != nil {
		return DedupResult{}, err
	}
	order, err := d.keepOrder(ctx, p, policy)
	if err != nil {
		return DedupResult{}, err
	}
	return d.dedupe(ctx, d.db, p, keyColumns, order)
}

// keepOrder builds the ORDER BY ranking rows from most to least authoritative,
// keeping only policy columns the table actually has. The physical row id is
// the final tiebreak so the choice is deterministic even among identical rows.
func (d *Deduplicator) keepOrder(ctx context.Context, p schema.Physical, policy KeepPolicy) (string, error) {
	if err := ident.SanitizeAll(policy.columns()...); err != nil {
		return "", err
	}

	live, err := d.catalog.Columns(ctx, p)
	if err != nil {
		return "", err
	}
	liveSet := make(map[string]bool, len(live))
	for _, c := range live {
		liveSet[c] = true
	}

	var parts []string
	if c := policy.CompletionColumn; c != "" && liveSet[c] {
		parts = append(parts, "("+d.dialect.QuoteIdent(c)+" IS NOT NULL) DESC")
	}
	if c := policy.UpdatedColumn; c != "" && liveSet[c] {
		parts = append(parts, d.dialect.QuoteIdent(c)+" DESC NULLS LAST")
	}
	if c := policy.CreatedColumn; c != "" && liveSet[c] {
		parts = append(parts, d.dialect.QuoteIdent(c)+" DESC NULLS LAST")
	}
	parts = append(parts, d.dialect.RowID())

	return strings.Join(parts, ", "), nil
}

// dedupe runs against q, which is either the pool or the gate's transaction.
func (d *Deduplicator) dedupe(ctx context.Context, q querier, p schema.Physical, keyColumns []string, order string) (DedupResult, error) {
	if err := ident.SanitizeAll(keyColumns...); err != nil {
		return DedupResult{}, err
	}

	groups, err := d.duplicateGroups(ctx, q, p, keyColumns)
	if err != nil {
		return DedupResult{}, err
	}
	if len(groups) == 0 {
		return DedupResult{Success: true}, nil
	}

	d.log.Info("resolving duplicate groups",
		"table", p.String(),
		"key", strings.Join(keyColumns, ","),
		"groups", len(groups))

	qualified := d.dialect.QualifyTable(p)
	rowID := d.dialect.RowID()

	for _, key := range groups {
		// Delete every row of the group except the most authoritative one.
		var b strings.Builder
		var args []any

		b.WriteString("DELETE FROM ")
		b.WriteString(qualified)
		b.WriteString(" WHERE ")
		for i, col := range keyColumns {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(d.dialect.QuoteIdent(col))
			b.WriteString(" = ")
			b.WriteString(d.dialect.Placeholder(len(args) + 1))
			args = append(args, key[i])
		}
		b.WriteString(" AND ")
		b.WriteString(rowID)
		b.WriteString(" <> (SELECT ")
		b.WriteString(rowID)
		b.WriteString(" FROM ")
		b.WriteString(qualified)
		b.WriteString(" WHERE ")
		for i, col := range keyColumns {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(d.dialect.QuoteIdent(col))
			b.WriteString(" = ")
			b.WriteString(d.dialect.Placeholder(len(args) + 1))
			args = append(args, key[i])
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
		b.WriteString(" LIMIT 1)")

		if _, err := q.ExecContext(ctx, b.String(), args...); err != nil {
			return DedupResult{DuplicatesRemoved: len(groups)},
				everr.WrapSQL(err, "delete duplicate rows", p.Table)
		}
	}

	return DedupResult{Success: true, DuplicatesRemoved: len(groups)}, nil
}

// duplicateGroups returns the key values of every group with more than one row.
func (d *Deduplicator) duplicateGroups(ctx context.Context, q querier, p schema.Physical, keyColumns []string) ([][]any, error) {
	quoted := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		quoted[i] = d.dialect.QuoteIdent(c)
	}
	cols := strings.Join(quoted, ", ")

	stmt := "SELECT " + cols + " FROM " + d.dialect.QualifyTable(p) +
		" GROUP BY " + cols + " HAVING COUNT(*) > 1"

	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, everr.WrapSQL(err, "find duplicate groups", p.Table)
	}
	defer rows.Close()

	var groups [][]any
	for rows.Next() {
		vals := make([]any, len(keyColumns))
		ptrs := make([]any, len(keyColumns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, everr.WrapSQL(err, "scan duplicate group", p.Table)
		}
		// Text values scan as []byte through the empty interface; rebind them
		// as strings so they round-trip as text parameters, not bytea.
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		groups = append(groups, vals)
	}

	return groups, rows.Err()
}

// countDuplicateGroups is the gate's existence probe.
func (d *Deduplicator) countDuplicateGroups(ctx context.Context, q querier, p schema.Physical, keyColumns []string) (int, error) {
	if err := ident.SanitizeAll(keyColumns...); err != nil {
		return 0, err
	}

	quoted := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		quoted[i] = d.dialect.QuoteIdent(c)
	}
	cols := strings.Join(quoted, ", ")

	stmt := "SELECT COUNT(*) FROM (SELECT " + cols + " FROM " + d.dialect.QualifyTable(p) +
		" GROUP BY " + cols + " HAVING COUNT(*) > 1) AS dup"

	var n int
	if err := q.QueryRowContext(ctx, stmt).Scan(&n); err != nil {
		return 0, everr.WrapSQL(err, "count duplicate groups", p.Table)
	}
	return n, nil
}
