package everr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrMigrationRequired, "duplicate rows block uniqueness constraint").
		WithTable("app", "spans").
		With("groups", 3)

	msg := err.Error()
	for _, want := range []string{
		"[E3002]",
		"duplicate rows block uniqueness constraint",
		"table: app.spans",
		"groups: 3",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q in:\n%s", want, msg)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrSQLExecution, cause, "failed to add column")

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.GetCause() != cause {
		t.Error("GetCause() did not return the wrapped error")
	}
	if !strings.Contains(err.Error(), "cause: connection reset") {
		t.Errorf("Error() missing cause line:\n%s", err.Error())
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(ErrTableSync, nil, "table sync failed")
	if err.GetCause() != nil {
		t.Error("Wrap(nil) stored a cause")
	}
	if err.GetCode() != ErrTableSync {
		t.Errorf("code = %s, want %s", err.GetCode(), ErrTableSync)
	}
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := Newf(ErrIndexOperation, "failed to create index %s", "idx_spans")
	if !errors.Is(err, New(ErrIndexOperation, "")) {
		t.Error("errors.Is did not match same-code errors")
	}
	if errors.Is(err, New(ErrTableSync, "")) {
		t.Error("errors.Is matched different-code errors")
	}
}

func TestIsWalksCauseChain(t *testing.T) {
	inner := New(ErrCastRejected, "cast rejected")
	outer := Wrap(ErrSQLExecution, inner, "promote failed")
	wrapped := fmt.Errorf("setup: %w", outer)

	if !Is(wrapped, ErrSQLExecution) {
		t.Error("Is did not find outer code")
	}
	if !Is(wrapped, ErrCastRejected) {
		t.Error("Is did not walk to inner code")
	}
	if Is(wrapped, ErrNamespaceDenied) {
		t.Error("Is matched a code not in the chain")
	}
	if Is(nil, ErrSQLExecution) {
		t.Error("Is(nil) = true")
	}
}

func TestGetErrorCode(t *testing.T) {
	err := New(ErrNamespaceDenied, "denied")
	wrapped := fmt.Errorf("outer: %w", err)

	if got := GetErrorCode(wrapped); got != ErrNamespaceDenied {
		t.Errorf("GetErrorCode = %s, want %s", got, ErrNamespaceDenied)
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode(plain) = %s, want empty", got)
	}
	if HasCode(errors.New("plain")) {
		t.Error("HasCode(plain) = true")
	}
}

func TestWithHelp(t *testing.T) {
	err := New(ErrNamespaceDenied, "insufficient privilege").
		WithHelp("pre-create the namespace").
		WithHelp("or grant schema creation")

	helps := err.Helps()
	if len(helps) != 2 {
		t.Fatalf("Helps() returned %d entries, want 2", len(helps))
	}
	if helps[0] != "pre-create the namespace" {
		t.Errorf("helps[0] = %q", helps[0])
	}
}

func TestWithTable(t *testing.T) {
	withNS := New(ErrTableSync, "x").WithTable("app", "spans")
	if withNS.GetContext()["table"] != "app.spans" {
		t.Errorf("table = %v, want app.spans", withNS.GetContext()["table"])
	}

	noNS := New(ErrTableSync, "x").WithTable("", "spans")
	if noNS.GetContext()["table"] != "spans" {
		t.Errorf("table = %v, want spans", noNS.GetContext()["table"])
	}
}

func TestWrapSQL(t *testing.T) {
	cause := errors.New("no such table")
	err := WrapSQL(cause, "inspect columns", "spans")

	if err.GetCode() != ErrSQLExecution {
		t.Errorf("code = %s, want %s", err.GetCode(), ErrSQLExecution)
	}
	if !strings.Contains(err.GetMessage(), "failed to inspect columns") {
		t.Errorf("message = %q", err.GetMessage())
	}
	if err.GetContext()["table"] != "spans" {
		t.Errorf("table context = %v", err.GetContext()["table"])
	}
}
