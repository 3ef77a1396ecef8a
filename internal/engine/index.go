package engine

import (
	"context"

	"github.com/hlop3z/evolvedb/internal/catalog"
	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// automaticIndexVersion identifies the fixed set of composite filter+sort
// indexes tuned to known query shapes. Bump it when the set changes.
const automaticIndexVersion = 2

// IndexManager creates, drops, lists and describes secondary indexes.
// Index existence is prioritized over build-time lock avoidance: a concurrent
// build that the execution context forbids is retried blocking.
type IndexManager struct {
	*core
}

func newIndexManager(c *core) *IndexManager {
	return &IndexManager{core: c}
}

// CreateIndex builds the index described by ix. No-op if an index of that
// name already exists in the namespace.
func (m *IndexManager) CreateIndex(ctx context.Context, ix *schema.Index) error {
	if err := ix.Validate(); err != nil {
		return err
	}

	p, err := m.router.Resolve(ix.Table)
	if err != nil {
		return err
	}

	exists, err := m.catalog.IndexExists(ctx, p.Schema, ix.Name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	concurrent := ix.Concurrent && m.dialect.SupportsConcurrentIndex()

	m.log.Info("creating index",
		"index", ix.Name,
		"table", p.String(),
		"unique", ix.Unique,
		"concurrent", concurrent)

	_, err = m.db.ExecContext(ctx, m.dialect.CreateIndexSQL(p, ix, concurrent))
	if err != nil && concurrent && m.dialect.IsConcurrentBuildForbidden(err) {
		// Concurrent builds are disallowed in this execution context (e.g.
		// inside a transaction). Retry the identical definition blocking.
		m.log.Warn("concurrent index build forbidden here, retrying blocking",
			"index", ix.Name,
			"error", err)
		_, err = m.db.ExecContext(ctx, m.dialect.CreateIndexSQL(p, ix, false))
	}
	if err != nil {
		if m.dialect.IsAlreadyExists(err) {
			return nil
		}
		return everr.Wrapf(everr.ErrIndexOperation, err, "failed to create index %s", ix.Name).
			WithIndex(ix.Name).
			WithTable(p.Schema, p.Table)
	}

	return nil
}

// DropIndex removes the named index. No-op if it does not exist.
func (m *IndexManager) DropIndex(ctx context.Context, name string) error {
	if _, err := ident.Sanitize(name); err != nil {
		return err
	}

	ns := m.router.Namespace()
	exists, err := m.catalog.IndexExists(ctx, ns, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if _, err := m.db.ExecContext(ctx, m.dialect.DropIndexSQL(ns, name)); err != nil {
		return everr.Wrapf(everr.ErrIndexOperation, err, "failed to drop index %s", name).
			WithIndex(name)
	}
	return nil
}

// ListIndexes returns every secondary index in the namespace, optionally
// restricted to one logical table.
func (m *IndexManager) ListIndexes(ctx context.Context, table string) ([]catalog.IndexInfo, error) {
	physical := ""
	if table != "" {
		p, err := m.router.Resolve(table)
		if err != nil {
			return nil, err
		}
		physical = p.Table
	}
	return m.catalog.ListIndexes(ctx, m.router.Namespace(), physical)
}

// DescribeIndex returns full details for one index including access method
// and cumulative usage counters, or nil if the index does not exist.
func (m *IndexManager) DescribeIndex(ctx context.Context, name string) (*catalog.IndexDetails, error) {
	if _, err := ident.Sanitize(name); err != nil {
		return nil, err
	}
	return m.catalog.DescribeIndex(ctx, m.router.Namespace(), name)
}

// ApplyAutomatic applies the versioned automatic index set. Automatic indexes
// are a performance optimization, never a correctness requirement: each
// index's failure is logged and skipped independently.
func (m *IndexManager) ApplyAutomatic(ctx context.Context) {
	m.log.Info("applying automatic indexes", "version", automaticIndexVersion)
	m.applyBestEffort(ctx, automaticIndexes())
}

// ApplyCustom applies caller-supplied indexes after the automatic ones, also
// independently best-effort. Callers that need a hard failure use CreateIndex.
func (m *IndexManager) ApplyCustom(ctx context.Context, defs []schema.Index) {
	m.applyBestEffort(ctx, defs)
}

func (m *IndexManager) applyBestEffort(ctx context.Context, defs []schema.Index) {
	for i := range defs {
		if err := m.CreateIndex(ctx, &defs[i]); err != nil {
			m.log.Warn("skipping index",
				"index", defs[i].Name,
				"table", defs[i].Table,
				"error", err)
		}
	}
}
