package engine

import (
	"context"
	"strings"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
)

// UniqueConstraint declares row uniqueness a table must eventually enforce on
// a specific key, together with how legacy duplicates are handled.
type UniqueConstraint struct {
	Name       string
	Columns    []string
	AutoDedupe bool
	Policy     KeepPolicy
}

// Gate decides at startup whether a uniqueness constraint can be safely added
// to a table that predates it. Operators get a clear migration-required
// signal instead of a raw uniqueness-violation from the engine.
type Gate struct {
	*core
	dedup *Deduplicator
}

func newGate(c *core, dedup *Deduplicator) *Gate {
	return &Gate{core: c, dedup: dedup}
}

// EnsureUnique ensures the named uniqueness constraint exists on the table.
// With no violating duplicate groups it proceeds with no side effects. With
// duplicates and auto-dedupe enabled, deduplication and constraint addition
// run as one transaction, so a crash mid-sequence leaves the table in a state
// a rerun safely resumes from. Otherwise it fails fast with MigrationRequired.
func (g *Gate) EnsureUnique(ctx context.Context, table string, uc UniqueConstraint) error {
	if _, err := ident.Sanitize(uc.Name); err != nil {
		return err
	}
	if err := ident.SanitizeAll(uc.Columns...); err != nil {
		return err
	}

	p, err := g.router.Resolve(table)
	if err != nil {
		return err
	}

	exists, err := g.catalog.ConstraintExists(ctx, p, uc.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	groups, err := g.dedup.countDuplicateGroups(ctx, g.db, p, uc.Columns)
	if err != nil {
		return err
	}

	if groups == 0 {
		return g.addConstraint(ctx, g.db, p.Table, uc)
	}

	if !uc.AutoDedupe {
		return g.migrationRequired(table, uc, groups, nil)
	}

	g.log.Info("tightening uniqueness after auto-deduplication",
		"table", p.String(),
		"constraint", uc.Name,
		"groups", groups)

	order, err := g.dedup.keepOrder(ctx, p, uc.Policy)
	if err != nil {
		return err
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return everr.Wrap(everr.ErrSQLTransaction, err, "begin dedupe transaction").
			WithTable(g.router.Namespace(), table)
	}
	defer tx.Rollback()

	if _, err := g.dedup.dedupe(ctx, tx, p, uc.Columns, order); err != nil {
		return g.migrationRequired(table, uc, groups, err)
	}
	if err := g.addConstraint(ctx, tx, p.Table, uc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return everr.Wrap(everr.ErrSQLTransaction, err, "commit dedupe transaction").
			WithTable(g.router.Namespace(), table)
	}
	return nil
}

func (g *Gate) addConstraint(ctx context.Context, q querier, table string, uc UniqueConstraint) error {
	p, err := g.router.Resolve(table)
	if err != nil {
		return err
	}

	stmt := g.dialect.AddUniqueConstraintSQL(p, uc.Name, uc.Columns)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		// A concurrently starting process may have added it already.
		if g.dialect.IsAlreadyExists(err) {
			return nil
		}
		// New duplicates raced in between the probe and the DDL; this is the
		// migration-required path, never a raw uniqueness-violation.
		if g.dialect.IsUniqueViolation(err) {
			return g.migrationRequired(table, uc, 0, err)
		}
		return everr.Wrapf(everr.ErrTableSync, err,
			"failed to add uniqueness constraint %s", uc.Name).
			WithTable(g.router.Namespace(), table).
			WithOperation("add constraint")
	}
	return nil
}

func (g *Gate) migrationRequired(table string, uc UniqueConstraint, groups int, cause error) error {
	e := everr.Wrapf(everr.ErrMigrationRequired, cause,
		"duplicate rows on (%s) block uniqueness constraint %s",
		strings.Join(uc.Columns, ", "), uc.Name).
		WithTable(g.router.Namespace(), table).
		WithHelp("run the deduplication migration for this table, then restart")
	if groups > 0 {
		e.With("groups", groups)
	}
	if !uc.AutoDedupe {
		e.WithHelp("or enable auto-dedupe to let startup resolve duplicates itself")
	}
	return e
}
