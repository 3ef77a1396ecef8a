package engine

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/schema"
)

func TestCreateAndDropIndex(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	if err := s.Sync.SyncTable(ctx, spansTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	ix := &schema.Index{
		Name:  "idx_spans_trace_started",
		Table: "spans",
		Columns: []schema.IndexColumn{
			{Name: "trace_id"},
			{Name: "started_at", Desc: true},
		},
		Concurrent: true, // falls back to blocking on SQLite
	}

	if err := s.Indexes.CreateIndex(ctx, ix); err != nil {
		t.Fatalf("CreateIndex error: %v", err)
	}

	// Creating the same index again is a no-op, not an error.
	if err := s.Indexes.CreateIndex(ctx, ix); err != nil {
		t.Fatalf("repeat CreateIndex error: %v", err)
	}

	indexes, err := s.Indexes.ListIndexes(ctx, "spans")
	if err != nil {
		t.Fatalf("ListIndexes error: %v", err)
	}
	found := false
	for _, in := range indexes {
		if in.Name == "idx_spans_trace_started" {
			found = true
			if len(in.Columns) != 2 || in.Columns[0] != "trace_id" {
				t.Errorf("index columns = %v", in.Columns)
			}
		}
	}
	if !found {
		t.Fatal("created index not listed")
	}

	det, err := s.Indexes.DescribeIndex(ctx, "idx_spans_trace_started")
	if err != nil {
		t.Fatalf("DescribeIndex error: %v", err)
	}
	if det == nil || det.Method != "btree" {
		t.Errorf("DescribeIndex = %+v", det)
	}

	if err := s.Indexes.DropIndex(ctx, "idx_spans_trace_started"); err != nil {
		t.Fatalf("DropIndex error: %v", err)
	}

	// Dropping a missing index is a no-op.
	if err := s.Indexes.DropIndex(ctx, "idx_spans_trace_started"); err != nil {
		t.Fatalf("repeat DropIndex error: %v", err)
	}

	det, err = s.Indexes.DescribeIndex(ctx, "idx_spans_trace_started")
	if err != nil {
		t.Fatalf("DescribeIndex error: %v", err)
	}
	if det != nil {
		t.Error("index still described after drop")
	}
}

func TestCreateIndexValidates(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	bad := &schema.Index{
		Name:    "idx; DROP TABLE x",
		Table:   "spans",
		Columns: []schema.IndexColumn{{Name: "trace_id"}},
	}
	if err := s.Indexes.CreateIndex(ctx, bad); err == nil {
		t.Error("CreateIndex accepted an unsafe index name")
	}

	noCols := &schema.Index{Name: "idx_spans", Table: "spans"}
	if err := s.Indexes.CreateIndex(ctx, noCols); err == nil {
		t.Error("CreateIndex accepted an index without columns")
	}
}

// concurrentFallbackDialect claims concurrent index support but emits SQL the
// engine rejects for concurrent builds, and classifies that rejection as a
// forbidden concurrent build.
type concurrentFallbackDialect struct {
	dialect.Dialect
}

func (d *concurrentFallbackDialect) SupportsConcurrentIndex() bool { return true }

func (d *concurrentFallbackDialect) CreateIndexSQL(p schema.Physical, ix *schema.Index, concurrent bool) string {
	if concurrent {
		return "CREATE INDEX CONCURRENTLY " + ix.Name
	}
	return d.Dialect.CreateIndexSQL(p, ix, false)
}

func (d *concurrentFallbackDialect) IsConcurrentBuildForbidden(err error) bool {
	return err != nil && strings.Contains(err.Error(), "syntax error")
}

func TestCreateIndexConcurrentFallsBackToBlocking(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db, &concurrentFallbackDialect{Dialect: dialect.SQLite()}, Options{
		Namespace: "app",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()

	if err := s.Sync.SyncTable(ctx, spansTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	ix := &schema.Index{
		Name:       "idx_spans_trace_started",
		Table:      "spans",
		Columns:    []schema.IndexColumn{{Name: "trace_id"}, {Name: "started_at", Desc: true}},
		Concurrent: true,
	}

	// The concurrent attempt fails and classifies as forbidden; the identical
	// definition must be retried blocking, so the index still exists.
	if err := s.Indexes.CreateIndex(ctx, ix); err != nil {
		t.Fatalf("CreateIndex error: %v", err)
	}

	exists, err := s.core.catalog.IndexExists(ctx, "app", "idx_spans_trace_started")
	if err != nil {
		t.Fatalf("IndexExists error: %v", err)
	}
	if !exists {
		t.Error("index missing after blocking retry")
	}
}

func TestApplyAutomaticBestEffort(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	// Only some platform tables exist; the rest must be skipped, not fatal.
	if err := s.Sync.SyncTable(ctx, spansTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}
	if err := s.Sync.SyncTable(ctx, tracesTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	s.Indexes.ApplyAutomatic(ctx)

	indexes, err := s.Indexes.ListIndexes(ctx, "")
	if err != nil {
		t.Fatalf("ListIndexes error: %v", err)
	}
	byName := make(map[string]bool, len(indexes))
	for _, in := range indexes {
		byName[in.Name] = true
	}

	if !byName["idx_spans_trace_started"] || !byName["idx_traces_name_started"] {
		t.Errorf("automatic indexes missing for existing tables: %v", byName)
	}
	if byName["idx_threads_resource_updated"] {
		t.Error("index created for a table that does not exist")
	}
}
