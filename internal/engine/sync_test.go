package engine

import (
	"context"
	"testing"

	"github.com/hlop3z/evolvedb/internal/schema"
)

func TestSyncTableCreatesWithShadows(t *testing.T) {
	db, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	if err := s.Sync.SyncTable(ctx, spansTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	cols := tableColumns(t, db, "app_spans")
	for _, want := range []string{
		"trace_id", "span_id", "name", "attributes",
		"started_at", "started_atZ",
		"ended_at", "ended_atZ",
		"created_at", "created_atZ",
		"updated_at", "updated_atZ",
	} {
		if !hasColumn(cols, want) {
			t.Errorf("missing column %s in %v", want, cols)
		}
	}
}

func TestSyncTableIdempotent(t *testing.T) {
	db, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Sync.SyncTable(ctx, threadsTable()); err != nil {
			t.Fatalf("SyncTable run %d error: %v", i+1, err)
		}
	}

	cols := tableColumns(t, db, "app_threads")
	seen := make(map[string]int)
	for _, c := range cols {
		seen[c]++
	}
	for c, n := range seen {
		if n > 1 {
			t.Errorf("column %s appears %d times after reruns", c, n)
		}
	}
}

func TestSyncTableAddsMissingColumns(t *testing.T) {
	db, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	// A legacy table missing newer columns and every shadow column.
	if _, err := db.Exec(`CREATE TABLE app_threads (id TEXT PRIMARY KEY, resource_id TEXT, created_at TEXT)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO app_threads (id, resource_id, created_at) VALUES ('t1', 'r1', '2024-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	if err := s.Sync.SyncTable(ctx, threadsTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	cols := tableColumns(t, db, "app_threads")
	for _, want := range []string{"title", "metadata", "updated_at", "created_atZ", "updated_atZ"} {
		if !hasColumn(cols, want) {
			t.Errorf("missing added column %s in %v", want, cols)
		}
	}

	// Existing data is untouched by additive sync.
	if n := countRows(t, db, "app_threads", "id = ?", "t1"); n != 1 {
		t.Errorf("legacy row count = %d, want 1", n)
	}
}

func TestSyncTableNeverDropsColumns(t *testing.T) {
	db, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	// A table with an extra column the declaration does not know about.
	if _, err := db.Exec(`CREATE TABLE app_scores (id TEXT PRIMARY KEY, trace_id TEXT, name TEXT, value INTEGER, comment TEXT, created_at TEXT, legacy_extra TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	if err := s.Sync.SyncTable(ctx, scoresTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}

	if !hasColumn(tableColumns(t, db, "app_scores"), "legacy_extra") {
		t.Error("sync dropped an undeclared column")
	}
}

func TestSyncTableRejectsInvalidDeclaration(t *testing.T) {
	_, s := newTestStore(t, Options{})

	bad := &schema.LogicalTable{
		Name:    "spans",
		Columns: []schema.Column{{Name: "bad name", Type: schema.TypeText}},
	}
	if err := s.Sync.SyncTable(context.Background(), bad); err == nil {
		t.Fatal("SyncTable accepted an invalid column name")
	}
}
