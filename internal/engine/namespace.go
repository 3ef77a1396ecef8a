package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/ident"
)

// NamespaceState tracks namespace setup per manager instance. The explicit
// state value replaces any global "setup complete" flag; concurrent callers
// collapse onto one in-flight creation.
type NamespaceState int

const (
	NamespaceUninitialized NamespaceState = iota
	NamespaceInProgress
	NamespaceReady
)

func (s NamespaceState) String() string {
	switch s {
	case NamespaceInProgress:
		return "in_progress"
	case NamespaceReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// nsFlight is one in-flight namespace creation shared by all waiters.
type nsFlight struct {
	done chan struct{}
	err  error
}

// NamespaceManager idempotently ensures schema namespaces exist. Races with
// other processes creating the same namespace are treated as success, not
// error: idempotence, not locking, is the safety net.
type NamespaceManager struct {
	*core

	mu      sync.Mutex
	ready   map[string]bool
	flights map[string]*nsFlight
}

func newNamespaceManager(c *core) *NamespaceManager {
	return &NamespaceManager{
		core:    c,
		ready:   make(map[string]bool),
		flights: make(map[string]*nsFlight),
	}
}

// State returns the current setup state of the namespace.
func (m *NamespaceManager) State(name string) NamespaceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready[name] {
		return NamespaceReady
	}
	if _, ok := m.flights[name]; ok {
		return NamespaceInProgress
	}
	return NamespaceUninitialized
}

// Ensure checks catalog existence of the namespace and creates it if absent.
// An empty name means the engine default namespace and needs no work.
// Concurrent calls within one process share a single in-flight operation.
func (m *NamespaceManager) Ensure(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if _, err := ident.Sanitize(name); err != nil {
		return err
	}

	if !m.dialect.SupportsNamespaces() {
		m.mu.Lock()
		m.ready[name] = true
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	if m.ready[name] {
		m.mu.Unlock()
		return nil
	}
	if f, ok := m.flights[name]; ok {
		m.mu.Unlock()
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &nsFlight{done: make(chan struct{})}
	m.flights[name] = f
	m.mu.Unlock()

	f.err = m.ensure(ctx, name)
	close(f.done)

	m.mu.Lock()
	delete(m.flights, name)
	if f.err == nil {
		m.ready[name] = true
	}
	m.mu.Unlock()

	return f.err
}

func (m *NamespaceManager) ensure(ctx context.Context, name string) error {
	exists, err := m.catalog.SchemaExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	m.log.Info("creating namespace", "namespace", name)

	if _, err := m.db.ExecContext(ctx, m.dialect.CreateSchemaSQL(name)); err != nil {
		// Another process creating the same namespace concurrently is success.
		if m.dialect.IsAlreadyExists(err) {
			return nil
		}
		if m.dialect.IsInsufficientPrivilege(err) {
			return everr.Wrapf(everr.ErrNamespaceDenied, err,
				"insufficient privilege to create namespace %q", name).
				With("namespace", name).
				WithHelp(fmt.Sprintf("pre-create the namespace: CREATE SCHEMA %q;", name)).
				WithHelp("or grant schema creation to the connecting role: GRANT CREATE ON DATABASE <db> TO <role>;")
		}
		return everr.Wrapf(everr.ErrNamespaceCreate, err,
			"failed to create namespace %q", name).
			With("namespace", name)
	}

	return nil
}
