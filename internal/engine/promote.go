package engine

import (
	"context"
	"strings"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// PromoteResult reports the outcome of a column type promotion.
type PromoteResult struct {
	Migrated     bool
	PreviousType string
}

// Promoter migrates one column's on-disk type in place, preserving values via
// the engine's native cast. Not safe to run concurrently with long-running
// writers that assume the old type on very large tables; it is an
// operator-triggered, one-time upgrade step.
type Promoter struct {
	*core
}

func newPromoter(c *core) *Promoter {
	return &Promoter{core: c}
}

// PromoteColumnType inspects the live column type and, when it differs from
// the target, issues a single ALTER COLUMN ... TYPE ... USING cast. A missing
// table or column, or an already-matching type, is not an error: fresh
// installs create the column with the target type directly.
func (pr *Promoter) PromoteColumnType(ctx context.Context, table, column string, target schema.ColumnType) (PromoteResult, error) {
	if _, err := ident.Sanitize(column); err != nil {
		return PromoteResult{}, err
	}

	p, err := pr.router.Resolve(table)
	if err != nil {
		return PromoteResult{}, err
	}

	exists, err := pr.catalog.TableExists(ctx, p)
	if err != nil {
		return PromoteResult{}, err
	}
	if !exists {
		return PromoteResult{}, nil
	}

	liveType, ok, err := pr.catalog.ColumnType(ctx, p, column)
	if err != nil {
		return PromoteResult{}, err
	}
	if !ok {
		return PromoteResult{}, nil
	}

	if strings.EqualFold(liveType, pr.dialect.TypeName(target)) {
		return PromoteResult{}, nil
	}

	if !pr.dialect.SupportsColumnTypeChange() {
		pr.log.Warn("column type promotion unsupported by dialect, leaving column as is",
			"table", p.String(),
			"column", column,
			"from", liveType,
			"to", string(target))
		return PromoteResult{}, nil
	}

	pr.log.Info("promoting column type",
		"table", p.String(),
		"column", column,
		"from", liveType,
		"to", string(target))

	stmt := pr.dialect.AlterColumnTypeSQL(p, column, target)
	if _, err := pr.db.ExecContext(ctx, stmt); err != nil {
		// A rejected cast signals a data assumption violation; surface it,
		// never swallow it.
		if pr.dialect.IsCastError(err) {
			return PromoteResult{}, everr.Wrapf(everr.ErrCastRejected, err,
				"engine rejected cast of %s.%s to %s", table, column, target).
				WithTable(pr.router.Namespace(), table).
				WithColumn(column).
				With("from", liveType).
				With("to", string(target))
		}
		return PromoteResult{}, everr.WrapSQL(err, "promote column type", table).WithColumn(column)
	}

	return PromoteResult{Migrated: true, PreviousType: liveType}, nil
}
