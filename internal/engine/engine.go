// Package engine implements the schema-evolution and index-lifecycle engine:
// table synchronization against declarative column schemas, online column type
// promotion, deduplication ahead of constraint tightening, and secondary index
// management. Every step is idempotent; the engine runs repeatedly against
// live, populated databases and must never lose data.
package engine

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hlop3z/evolvedb/internal/catalog"
	"github.com/hlop3z/evolvedb/internal/dialect"
)

// querier is the subset of *sql.DB and *sql.Tx the engine executes through,
// so the dedupe-then-tighten sequence can run inside one transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// core bundles the shared resources every engine component needs: the pooled
// connection, the dialect, the catalog reader, the name router and the logger.
type core struct {
	db      *sql.DB
	dialect dialect.Dialect
	catalog catalog.Catalog
	router  *Router
	log     *slog.Logger
}

func newCore(db *sql.DB, d dialect.Dialect, router *Router, log *slog.Logger) *core {
	if log == nil {
		log = slog.Default()
	}
	return &core{
		db:      db,
		dialect: d,
		catalog: catalog.New(db, d),
		router:  router,
		log:     log,
	}
}
