package schema

import (
	"testing"
)

func TestIndexValidate(t *testing.T) {
	good := &Index{
		Name:  "idx_spans_trace_started",
		Table: "spans",
		Columns: []IndexColumn{
			{Name: "trace_id"},
			{Name: "started_at", Desc: true},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestIndexValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		ix   Index
	}{
		{"bad name", Index{Name: "idx; DROP", Table: "spans", Columns: []IndexColumn{{Name: "a"}}}},
		{"bad table", Index{Name: "idx_a", Table: "spans--", Columns: []IndexColumn{{Name: "a"}}}},
		{"no columns", Index{Name: "idx_a", Table: "spans"}},
		{"bad column", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a b"}}}},
		{"bad method", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a"}}, Method: "gin; --"}},
		{"bad tablespace", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a"}}, Tablespace: "fast disk"}},
		{"bad storage key", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a"}}, StorageParams: map[string]string{"fill factor": "70"}}},
		{"bad storage value", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a"}}, StorageParams: map[string]string{"fillfactor": "70); DROP TABLE x"}}},
		{"dangerous where", Index{Name: "idx_a", Table: "spans", Columns: []IndexColumn{{Name: "a"}}, Where: "1=1; DROP TABLE spans"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ix.Validate(); err == nil {
				t.Fatal("Validate succeeded, want error")
			}
		})
	}
}

func TestValidateExpression(t *testing.T) {
	tests := []struct {
		expr string
		ok   bool
	}{
		{"", true},
		{"value IS NOT NULL", true},
		{"ended_at > started_at", true},
		{"archived = false", true},
		{"1=1; DROP TABLE spans", false},
		{"x -- comment", false},
		{"x /* comment */", false},
		{"1 UNION SELECT password FROM users", false},
		{"pg_sleep(10) IS NULL", false},
		{"value > 0 AND DELETE", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateExpression(tt.expr)
			if tt.ok && err != nil {
				t.Errorf("ValidateExpression(%q) error: %v", tt.expr, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("ValidateExpression(%q) succeeded, want error", tt.expr)
			}
		})
	}
}

func TestPhysicalString(t *testing.T) {
	if got := (Physical{Schema: "app", Table: "spans"}).String(); got != "app.spans" {
		t.Errorf("String = %s, want app.spans", got)
	}
	if got := (Physical{Table: "spans"}).String(); got != "spans" {
		t.Errorf("String = %s, want spans", got)
	}
}
