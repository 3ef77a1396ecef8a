package engine

import (
	"testing"

	"github.com/hlop3z/evolvedb/internal/everr"
)

func TestRouterResolveIdentity(t *testing.T) {
	r := NewRouter("app", nil)

	p, err := r.Resolve("spans")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.Schema != "app" || p.Table != "spans" {
		t.Errorf("Resolve = %+v, want app.spans", p)
	}
	if r.Namespace() != "app" {
		t.Errorf("Namespace = %s", r.Namespace())
	}
}

func TestRouterResolveOverride(t *testing.T) {
	r := NewRouter("app", map[string]string{"spans": "otel_spans"})

	p, err := r.Resolve("spans")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.Table != "otel_spans" {
		t.Errorf("Resolve override = %s, want otel_spans", p.Table)
	}

	// Non-overridden names keep the identity convention.
	p, err = r.Resolve("threads")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.Table != "threads" {
		t.Errorf("Resolve = %s, want threads", p.Table)
	}
}

func TestRouterRejectsUnsafeNames(t *testing.T) {
	r := NewRouter("app", map[string]string{"spans": "bad name"})

	if _, err := r.Resolve("spans; DROP TABLE x"); err == nil {
		t.Error("Resolve accepted an unsafe logical name")
	}

	// An unsafe override is just as dangerous as an unsafe logical name.
	_, err := r.Resolve("spans")
	if err == nil {
		t.Fatal("Resolve accepted an unsafe override")
	}
	if got := everr.GetErrorCode(err); got != everr.ErrInvalidIdentifier {
		t.Errorf("code = %s, want %s", got, everr.ErrInvalidIdentifier)
	}
}

func TestRouterCaches(t *testing.T) {
	r := NewRouter("", nil)

	p1, err := r.Resolve("threads")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	p2, err := r.Resolve("threads")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p1 != p2 {
		t.Errorf("cached resolution differs: %+v vs %+v", p1, p2)
	}
	if p1.Schema != "" {
		t.Errorf("empty namespace produced schema %q", p1.Schema)
	}
}
