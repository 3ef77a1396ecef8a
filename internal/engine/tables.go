package engine

import (
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Built-in platform tables. Each storage domain declares its column set here
// as a compile-time constant; physical naming is the router's business.

func threadsTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "threads",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			{Name: "resource_id", Type: schema.TypeText},
			{Name: "title", Type: schema.TypeText, Nullable: true},
			{Name: "metadata", Type: schema.TypeJSONB, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
			{Name: "updated_at", Type: schema.TypeTimestamp},
		},
	}
}

func messagesTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "messages",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			{Name: "thread_id", Type: schema.TypeText},
			{Name: "role", Type: schema.TypeText},
			{Name: "content", Type: schema.TypeText},
			{Name: "archived", Type: schema.TypeBoolean, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
		},
	}
}

func resourcesTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "resources",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			{Name: "working_memory", Type: schema.TypeText, Nullable: true},
			{Name: "metadata", Type: schema.TypeJSONB, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
			{Name: "updated_at", Type: schema.TypeTimestamp},
		},
	}
}

func tracesTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "traces",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			{Name: "name", Type: schema.TypeText},
			{Name: "scope", Type: schema.TypeText, Nullable: true},
			{Name: "attributes", Type: schema.TypeJSONB, Nullable: true},
			{Name: "started_at", Type: schema.TypeTimestamp},
			{Name: "ended_at", Type: schema.TypeTimestamp, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
		},
	}
}

func spansTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "spans",
		Columns: []schema.Column{
			{Name: "trace_id", Type: schema.TypeText},
			{Name: "span_id", Type: schema.TypeText},
			{Name: "parent_span_id", Type: schema.TypeText, Nullable: true},
			{Name: "name", Type: schema.TypeText},
			{Name: "attributes", Type: schema.TypeJSONB, Nullable: true},
			{Name: "started_at", Type: schema.TypeTimestamp},
			{Name: "ended_at", Type: schema.TypeTimestamp, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
			{Name: "updated_at", Type: schema.TypeTimestamp},
		},
	}
}

func scoresTable() *schema.LogicalTable {
	return &schema.LogicalTable{
		Name: "scores",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeText, PrimaryKey: true},
			{Name: "trace_id", Type: schema.TypeText},
			{Name: "name", Type: schema.TypeText},
			{Name: "value", Type: schema.TypeInteger},
			{Name: "comment", Type: schema.TypeText, Nullable: true},
			{Name: "created_at", Type: schema.TypeTimestamp},
		},
	}
}

// platformTables returns every built-in table in sync order.
func platformTables() []*schema.LogicalTable {
	return []*schema.LogicalTable{
		threadsTable(),
		messagesTable(),
		resourcesTable(),
		tracesTable(),
		spansTable(),
		scoresTable(),
	}
}

// spansUnique is the uniqueness constraint tightened on tables that predate
// it; legacy rows may violate it and are deduplicated first.
func spansUnique(autoDedupe bool) UniqueConstraint {
	return UniqueConstraint{
		Name:       "uniq_spans_trace_id_span_id",
		Columns:    []string{"trace_id", "span_id"},
		AutoDedupe: autoDedupe,
		Policy:     DefaultKeepPolicy(),
	}
}

// automaticIndexes is the versioned composite filter+sort index set tuned to
// the known query shapes of the platform tables.
func automaticIndexes() []schema.Index {
	return []schema.Index{
		{
			Name:  "idx_threads_resource_updated",
			Table: "threads",
			Columns: []schema.IndexColumn{
				{Name: "resource_id"},
				{Name: "updated_at", Desc: true},
			},
			Concurrent: true,
		},
		{
			Name:  "idx_messages_thread_created",
			Table: "messages",
			Columns: []schema.IndexColumn{
				{Name: "thread_id"},
				{Name: "created_at", Desc: true},
			},
			Concurrent: true,
		},
		{
			Name:  "idx_traces_name_started",
			Table: "traces",
			Columns: []schema.IndexColumn{
				{Name: "name"},
				{Name: "started_at", Desc: true},
			},
			Concurrent: true,
		},
		{
			Name:  "idx_spans_trace_started",
			Table: "spans",
			Columns: []schema.IndexColumn{
				{Name: "trace_id"},
				{Name: "started_at", Desc: true},
			},
			Concurrent: true,
		},
		{
			Name:  "idx_scores_trace_created",
			Table: "scores",
			Columns: []schema.IndexColumn{
				{Name: "trace_id"},
				{Name: "created_at", Desc: true},
			},
			Concurrent: true,
		},
	}
}
