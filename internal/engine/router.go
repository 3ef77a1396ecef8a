package engine

import (
	"sync"

	"github.com/hlop3z/evolvedb/internal/ident"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Router maps logical table names to physical identifiers. An override map
// lets multiple logical deployments co-locate in one physical database; the
// default convention is identity. Resolution happens once per logical name
// and is cached for the process lifetime.
type Router struct {
	namespace string
	overrides map[string]string

	mu    sync.RWMutex
	cache map[string]schema.Physical
}

// NewRouter creates a Router for the given namespace and override map.
// Both may be empty; an empty namespace means the engine default.
func NewRouter(namespace string, overrides map[string]string) *Router {
	ov := make(map[string]string, len(overrides))
	for k, v := range overrides {
		ov[k] = v
	}
	return &Router{
		namespace: namespace,
		overrides: ov,
		cache:     make(map[string]schema.Physical),
	}
}

// Namespace returns the namespace every resolved identifier carries.
func (r *Router) Namespace() string {
	return r.namespace
}

// Resolve maps a logical table name to its physical identifier. The result is
// always sanitized; a failing name never reaches DDL text.
func (r *Router) Resolve(logical string) (schema.Physical, error) {
	r.mu.RLock()
	if p, ok := r.cache[logical]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	if _, err := ident.Sanitize(logical); err != nil {
		return schema.Physical{}, err
	}

	physical := logical
	if override, ok := r.overrides[logical]; ok {
		physical = override
	}
	if _, err := ident.Sanitize(physical); err != nil {
		return schema.Physical{}, err
	}

	p := schema.Physical{Schema: r.namespace, Table: physical}

	r.mu.Lock()
	r.cache[logical] = p
	r.mu.Unlock()

	return p, nil
}
