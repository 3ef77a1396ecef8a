package engine

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Options configures a Store.
type Options struct {
	// Namespace is the schema namespace all tables live in. Empty means the
	// engine default.
	Namespace string

	// TableOverrides maps logical table names to physical ones, so multiple
	// logical deployments can share one physical database.
	TableOverrides map[string]string

	// AutoDedupe lets startup resolve legacy duplicate rows itself before
	// tightening uniqueness constraints. When disabled, violating tables
	// fail fast with a migration-required error.
	AutoDedupe bool

	// CustomIndexes are applied after the automatic set, best-effort.
	CustomIndexes []schema.Index

	// Logger receives structured progress and best-effort failure logs.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Store composes the engine components over one shared connection pool. Each
// component holds a reference to the same pool, dialect and namespace;
// composition, not inheritance.
type Store struct {
	core *core
	opts Options

	Namespaces *NamespaceManager
	Sync       *Synchronizer
	Promote    *Promoter
	Dedupe     *Deduplicator
	Gate       *Gate
	Indexes    *IndexManager
}

// New creates a Store over db for the given dialect.
func New(db *sql.DB, d dialect.Dialect, opts Options) *Store {
	router := NewRouter(opts.Namespace, opts.TableOverrides)
	c := newCore(db, d, router, opts.Logger)
	dedup := newDeduplicator(c)

	return &Store{
		core:       c,
		opts:       opts,
		Namespaces: newNamespaceManager(c),
		Sync:       newSynchronizer(c),
		Promote:    newPromoter(c),
		Dedupe:     dedup,
		Gate:       newGate(c, dedup),
		Indexes:    newIndexManager(c),
	}
}

// Setup runs the startup migration sequence: per logical table, ensure the
// namespace, synchronize the table, run one-time catch-up steps (column type
// promotion, deduplication), tighten uniqueness constraints, then apply
// automatic and custom indexes. Every step is individually idempotent; the
// whole sequence reruns on every process start.
func (s *Store) Setup(ctx context.Context) error {
	if err := s.Namespaces.Ensure(ctx, s.opts.Namespace); err != nil {
		return err
	}

	for _, lt := range platformTables() {
		if err := s.Sync.SyncTable(ctx, lt); err != nil {
			return err
		}
	}

	// One-time catch-ups: columns that predate their native types. Fresh
	// installs already have the target types and these are no-ops.
	for _, pc := range []struct {
		table, column string
	}{
		{"threads", "metadata"},
		{"spans", "attributes"},
	} {
		res, err := s.Promote.PromoteColumnType(ctx, pc.table, pc.column, schema.TypeJSONB)
		if err != nil {
			return err
		}
		if res.Migrated {
			s.core.log.Info("promoted column type",
				"table", pc.table,
				"column", pc.column,
				"previous", res.PreviousType)
		}
	}

	if err := s.Gate.EnsureUnique(ctx, "spans", spansUnique(s.opts.AutoDedupe)); err != nil {
		return err
	}

	s.Indexes.ApplyAutomatic(ctx)
	if len(s.opts.CustomIndexes) > 0 {
		s.Indexes.ApplyCustom(ctx, s.opts.CustomIndexes)
	}

	return nil
}

// Tables returns the built-in logical tables, for status display.
func (s *Store) Tables() []*schema.LogicalTable {
	return platformTables()
}
