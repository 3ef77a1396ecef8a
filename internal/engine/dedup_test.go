package engine

import (
	"context"
	"testing"
)

// seedSpans creates the physical spans table and inserts the given rows.
// Timestamps are RFC 3339 text, so lexicographic order is chronological.
func seedSpans(t *testing.T, s *Store, rows []spanRow) {
	t.Helper()
	ctx := context.Background()

	if err := s.Sync.SyncTable(ctx, spansTable()); err != nil {
		t.Fatalf("SyncTable error: %v", err)
	}
	for _, r := range rows {
		_, err := s.core.db.ExecContext(ctx, `
			INSERT INTO "app_spans" (trace_id, span_id, name, started_at, ended_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.traceID, r.spanID, r.name, "2024-01-01T00:00:00Z", r.endedAt, r.createdAt, r.updatedAt)
		if err != nil {
			t.Fatalf("insert span %s: %v", r.name, err)
		}
	}
}

type spanRow struct {
	traceID, spanID, name string
	endedAt               any // nil for NULL
	createdAt, updatedAt  any
}

func survivorName(t *testing.T, s *Store, traceID, spanID string) string {
	t.Helper()
	var name string
	err := s.core.db.QueryRow(
		`SELECT name FROM "app_spans" WHERE trace_id = ? AND span_id = ?`,
		traceID, spanID).Scan(&name)
	if err != nil {
		t.Fatalf("read survivor: %v", err)
	}
	return name
}

func TestDeduplicateCompletionBeatsRecency(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	// The finished row wins even though the unfinished one was updated later.
	seedSpans(t, s, []spanRow{
		{"t1", "s1", "unfinished", nil, "2024-01-01T00:00:00Z", "2024-06-01T00:00:00Z"},
		{"t1", "s1", "finished", "2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z"},
	})

	res, err := s.Dedupe.Deduplicate(context.Background(), "spans", []string{"trace_id", "span_id"}, DefaultKeepPolicy())
	if err != nil {
		t.Fatalf("Deduplicate error: %v", err)
	}
	if !res.Success || res.DuplicatesRemoved != 1 {
		t.Errorf("result = %+v, want success with 1 group", res)
	}
	if got := survivorName(t, s, "t1", "s1"); got != "finished" {
		t.Errorf("survivor = %s, want finished", got)
	}
}

func TestDeduplicateUpdatedAtTiebreak(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	// Both unfinished; the more recently updated row wins.
	seedSpans(t, s, []spanRow{
		{"t1", "s1", "older", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t1", "s1", "newer", nil, "2024-01-01T00:00:00Z", "2024-03-01T00:00:00Z"},
	})

	if _, err := s.Dedupe.Deduplicate(context.Background(), "spans", []string{"trace_id", "span_id"}, DefaultKeepPolicy()); err != nil {
		t.Fatalf("Deduplicate error: %v", err)
	}
	if got := survivorName(t, s, "t1", "s1"); got != "newer" {
		t.Errorf("survivor = %s, want newer", got)
	}
}

func TestDeduplicateCreatedAtTiebreak(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	seedSpans(t, s, []spanRow{
		{"t1", "s1", "first", nil, "2024-01-01T00:00:00Z", "2024-05-01T00:00:00Z"},
		{"t1", "s1", "second", nil, "2024-02-01T00:00:00Z", "2024-05-01T00:00:00Z"},
	})

	if _, err := s.Dedupe.Deduplicate(context.Background(), "spans", []string{"trace_id", "span_id"}, DefaultKeepPolicy()); err != nil {
		t.Fatalf("Deduplicate error: %v", err)
	}
	if got := survivorName(t, s, "t1", "s1"); got != "second" {
		t.Errorf("survivor = %s, want second (greater created_at)", got)
	}
}

func TestDeduplicateCountsGroupsNotRows(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	// Two groups: one with three rows, one with two. A lone row is untouched.
	seedSpans(t, s, []spanRow{
		{"t1", "s1", "a1", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t1", "s1", "a2", nil, "2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z"},
		{"t1", "s1", "a3", nil, "2024-01-03T00:00:00Z", "2024-01-03T00:00:00Z"},
		{"t2", "s2", "b1", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
		{"t2", "s2", "b2", nil, "2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z"},
		{"t3", "s3", "lone", nil, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
	})

	ctx := context.Background()
	res, err := s.Dedupe.Deduplicate(ctx, "spans", []string{"trace_id", "span_id"}, DefaultKeepPolicy())
	if err != nil {
		t.Fatalf("Deduplicate error: %v", err)
	}
	if res.DuplicatesRemoved != 2 {
		t.Errorf("DuplicatesRemoved = %d, want 2 (groups, not rows)", res.DuplicatesRemoved)
	}

	if n := countRows(t, s.core.db, "app_spans", ""); n != 3 {
		t.Errorf("row count = %d, want 3 survivors", n)
	}
	if got := survivorName(t, s, "t3", "s3"); got != "lone" {
		t.Errorf("lone row disturbed: %s", got)
	}

	// Rerunning against a clean table reports zero groups.
	res, err = s.Dedupe.Deduplicate(ctx, "spans", []string{"trace_id", "span_id"}, DefaultKeepPolicy())
	if err != nil {
		t.Fatalf("second Deduplicate error: %v", err)
	}
	if !res.Success || res.DuplicatesRemoved != 0 {
		t.Errorf("second run = %+v, want success with 0 groups", res)
	}
}

func TestDeduplicateSkipsAbsentPolicyColumns(t *testing.T) {
	db, s := newTestStore(t, Options{Namespace: "app"})
	ctx := context.Background()

	// A table without ended_at or updated_at; only created_at ranks rows.
	if _, err := db.Exec(`CREATE TABLE app_events (event_id TEXT, name TEXT, created_at TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, r := range [][2]string{{"old", "2024-01-01T00:00:00Z"}, {"new", "2024-02-01T00:00:00Z"}} {
		if _, err := db.Exec(`INSERT INTO app_events (event_id, name, created_at) VALUES ('e1', ?, ?)`, r[0], r[1]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	res, err := s.Dedupe.Deduplicate(ctx, "events", []string{"event_id"}, DefaultKeepPolicy())
	if err != nil {
		t.Fatalf("Deduplicate error: %v", err)
	}
	if res.DuplicatesRemoved != 1 {
		t.Errorf("DuplicatesRemoved = %d, want 1", res.DuplicatesRemoved)
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM app_events WHERE event_id = 'e1'`).Scan(&name); err != nil {
		t.Fatalf("read survivor: %v", err)
	}
	if name != "new" {
		t.Errorf("survivor = %s, want new", name)
	}
}

func TestDeduplicateRejectsUnsafeKeyColumns(t *testing.T) {
	_, s := newTestStore(t, Options{Namespace: "app"})

	_, err := s.Dedupe.Deduplicate(context.Background(), "spans", []string{"trace_id; DROP TABLE x"}, DefaultKeepPolicy())
	if err == nil {
		t.Fatal("Deduplicate accepted an unsafe key column")
	}
}
