package engine

import (
	"context"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Synchronizer creates tables from declarative schemas and additively
// reconciles columns on tables that already exist. Columns are never dropped
// or narrowed; the additive-only rule is the core non-destructive invariant.
type Synchronizer struct {
	*core
}

func newSynchronizer(c *core) *Synchronizer {
	return &Synchronizer{core: c}
}

// SyncTable ensures the physical table for lt exists and carries every
// declared column plus one shadow column per timestamp column. Auxiliary
// trigger setup is best-effort; table existence and column shape are the only
// required outcomes. Any DDL failure is fatal for this table.
func (s *Synchronizer) SyncTable(ctx context.Context, lt *schema.LogicalTable) error {
	if err := lt.Validate(); err != nil {
		return err
	}

	p, err := s.router.Resolve(lt.Name)
	if err != nil {
		return err
	}

	exists, err := s.catalog.TableExists(ctx, p)
	if err != nil {
		return s.syncFailed(lt.Name, "check existence", err)
	}

	required := lt.RequiredColumns()

	if !exists {
		s.log.Info("creating table", "table", p.String(), "columns", len(required))

		stmt := s.dialect.CreateTableSQL(p, required)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// A concurrently starting process may have created it first.
			if !s.dialect.IsAlreadyExists(err) {
				return s.syncFailed(lt.Name, "create table", err)
			}
		}
	} else {
		if err := s.addMissingColumns(ctx, lt, p, required); err != nil {
			return err
		}
	}

	s.setupShadowSync(ctx, lt, p)
	return nil
}

// addMissingColumns diffs live columns against declared plus shadow
// requirements and issues only additive ADD COLUMN statements.
func (s *Synchronizer) addMissingColumns(ctx context.Context, lt *schema.LogicalTable, p schema.Physical, required []schema.Column) error {
	live, err := s.catalog.Columns(ctx, p)
	if err != nil {
		return s.syncFailed(lt.Name, "list columns", err)
	}

	liveSet := make(map[string]bool, len(live))
	for _, name := range live {
		liveSet[name] = true
	}

	for _, col := range required {
		if liveSet[col.Name] {
			continue
		}

		s.log.Info("adding column", "table", p.String(), "column", col.Name, "type", string(col.Type))

		stmt := s.dialect.AddColumnSQL(p, col)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// Lost an add-column race against another process: same outcome.
			if s.dialect.IsAlreadyExists(err) {
				continue
			}
			return s.syncFailed(lt.Name, "add column "+col.Name, err)
		}
	}

	return nil
}

// setupShadowSync installs the trigger keeping shadow timestamp columns in
// step with their base columns. Failure is logged, never fatal.
func (s *Synchronizer) setupShadowSync(ctx context.Context, lt *schema.LogicalTable, p schema.Physical) {
	var bases []string
	for _, col := range lt.Columns {
		if col.Type == schema.TypeTimestamp {
			bases = append(bases, col.Name)
		}
	}

	stmts := s.dialect.ShadowSyncSQL(p, bases)
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.log.Warn("shadow timestamp trigger setup failed",
				"table", p.String(),
				"error", err)
			return
		}
	}
}

func (s *Synchronizer) syncFailed(table, operation string, err error) error {
	return everr.Wrapf(everr.ErrTableSync, err, "table sync failed during %s", operation).
		WithTable(s.router.Namespace(), table).
		WithOperation(operation)
}
