package engine

import (
	"context"
	"testing"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/schema"
)

func TestEnsureUniqueCleanTable(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	seedSpans(t, s, []spanRow{
		{"t1", "s1", "a", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t2", "s2", "b", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
	})

	if err := s.Gate.EnsureUnique(ctx, "spans", spansUnique(false)); err != nil {
		t.Fatalf("EnsureUnique error: %v", err)
	}

	exists, err := s.core.catalog.ConstraintExists(ctx, mustResolve(t, s, "spans"), "uniq_spans_trace_id_span_id")
	if err != nil {
		t.Fatalf("ConstraintExists error: %v", err)
	}
	if !exists {
		t.Fatal("constraint missing after EnsureUnique")
	}

	// Idempotent: a second call is a no-op.
	if err := s.Gate.EnsureUnique(ctx, "spans", spansUnique(false)); err != nil {
		t.Fatalf("repeat EnsureUnique error: %v", err)
	}
}

func TestEnsureUniqueDuplicatesWithoutAutoDedupe(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	seedSpans(t, s, []spanRow{
		{"t1", "s1", "a", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t1", "s1", "b", nil, "2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z"},
	})

	err := s.Gate.EnsureUnique(ctx, "spans", spansUnique(false))
	if err == nil {
		t.Fatal("EnsureUnique succeeded over duplicates without auto-dedupe")
	}

	// The operator gets a migration-required signal, never a raw uniqueness
	// violation from the engine.
	if !everr.Is(err, everr.ErrMigrationRequired) {
		t.Errorf("error code = %s, want %s", everr.GetErrorCode(err), everr.ErrMigrationRequired)
	}

	// Nothing was deleted and no constraint was added.
	if n := countRows(t, s.core.db, "app_spans", ""); n != 2 {
		t.Errorf("row count = %d, want 2 (gate must not delete)", n)
	}
}

func TestEnsureUniqueDuplicatesWithAutoDedupe(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	seedSpans(t, s, []spanRow{
		{"t1", "s1", "loser", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t1", "s1", "winner", "2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t2", "s2", "lone", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
	})

	if err := s.Gate.EnsureUnique(ctx, "spans", spansUnique(true)); err != nil {
		t.Fatalf("EnsureUnique error: %v", err)
	}

	if n := countRows(t, s.core.db, "app_spans", ""); n != 2 {
		t.Errorf("row count = %d, want 2 after dedupe", n)
	}
	if got := survivorName(t, s, "t1", "s1"); got != "winner" {
		t.Errorf("survivor = %s, want winner", got)
	}

	exists, err := s.core.catalog.ConstraintExists(ctx, mustResolve(t, s, "spans"), "uniq_spans_trace_id_span_id")
	if err != nil {
		t.Fatalf("ConstraintExists error: %v", err)
	}
	if !exists {
		t.Fatal("constraint missing after auto-dedupe run")
	}

	// New inserts violating the key are now rejected by the engine.
	_, err = s.core.db.Exec(`
		INSERT INTO "app_spans" (trace_id, span_id, name, started_at, created_at, updated_at)
		VALUES ('t1', 's1', 'dup', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	if err == nil {
		t.Error("duplicate insert succeeded after constraint tightening")
	}
}

func TestEnsureUniqueRejectsUnsafeNames(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	uc := spansUnique(false)
	uc.Name = "bad name"
	if err := s.Gate.EnsureUnique(context.Background(), "spans", uc); err == nil {
		t.Error("EnsureUnique accepted an unsafe constraint name")
	}

	uc = spansUnique(false)
	uc.Columns = []string{"trace_id", "span id"}
	if err := s.Gate.EnsureUnique(context.Background(), "spans", uc); err == nil {
		t.Error("EnsureUnique accepted an unsafe column name")
	}
}

func mustResolve(t *testing.T, s *Store, table string) schema.Physical {
	t.Helper()
	p, err := s.core.router.Resolve(table)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", table, err)
	}
	return p
}
