// Package idregistry is the Identifier Registry (C1): the single source of
// truth for which database names and Cypher labels the orchestration core
// will accept from a caller. Its in-memory shape is grounded on
// graphrag.DefaultNodeTypeRegistry (an RWMutex-guarded map with sentinel
// errors); when an etcd endpoint is configured it is additionally backed by
// a durable store so that every replica in a fleet observes the same
// registration set.
package idregistry

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"

	"github.com/graphmind/orchestrator/orcherr"
)

// ErrNotRegistered indicates the identifier was never registered.
var ErrNotRegistered = errors.New("idregistry: identifier not registered")

// labelPattern matches the Cypher-safe label grammar: a node label or
// relationship type must start with a letter or underscore and contain
// only word characters. Anything else is rejected before it ever
// reaches the Graph Gateway.
var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dbNamePattern matches the stricter database-name grammar: letters and
// digits only, starting with a letter. Database names double as Neo4j
// database identifiers, which reject leading underscores and digits.
var dbNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// systemNames are never returned by ListUserDBs even if registered.
var systemNames = map[string]bool{
	"agenttraces": true,
	"system":      true,
}

// Store is the durability backend consulted by Registry in addition to
// its in-memory map. A nil Store means the registry is memory-only for
// this process.
type Store interface {
	Put(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// Registry validates and tracks database identifiers. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names map[string]bool
	store Store
}

// New creates a Registry. If store is non-nil its contents are loaded
// to seed the in-memory set, and every subsequent Register/Unregister is
// mirrored to it.
func New(ctx context.Context, store Store) (*Registry, error) {
	r := &Registry{names: make(map[string]bool), store: store}
	if store != nil {
		existing, err := store.List(ctx)
		if err != nil {
			return nil, orcherr.Wrap(err, orcherr.CodeInternal, "idregistry: failed to load durable store")
		}
		for _, n := range existing {
			r.names[n] = true
		}
	}
	return r, nil
}

// ValidIdentifier reports whether s is a syntactically valid Cypher
// label or relationship type, independent of whether it is registered.
func ValidIdentifier(s string) bool {
	return labelPattern.MatchString(s)
}

// ValidDBName reports whether s is a syntactically valid database name.
// Stricter than ValidIdentifier: no leading underscore, no underscores
// at all.
func ValidDBName(s string) bool {
	return dbNamePattern.MatchString(s)
}

// RegisterDB registers name as a known database. It is idempotent and
// case-sensitive. Returns orcherr.CodeInvalidIdentifier if name does not
// match the database-name grammar.
func (r *Registry) RegisterDB(ctx context.Context, name string) error {
	if !ValidDBName(name) {
		return orcherr.New(orcherr.CodeInvalidIdentifier, "invalid database identifier: "+name).
			WithComponent("idregistry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[name] {
		return nil
	}
	if r.store != nil {
		if err := r.store.Put(ctx, name); err != nil {
			return orcherr.Wrap(err, orcherr.CodeInternal, "idregistry: durable put failed").WithComponent("idregistry")
		}
	}
	r.names[name] = true
	return nil
}

// Unregister removes name from the registry. Operator-only; callers
// reached from request paths must never invoke this directly.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.names[name] {
		return ErrNotRegistered
	}
	if r.store != nil {
		if err := r.store.Delete(ctx, name); err != nil {
			return orcherr.Wrap(err, orcherr.CodeInternal, "idregistry: durable delete failed").WithComponent("idregistry")
		}
	}
	delete(r.names, name)
	return nil
}

// IsValid reports whether name is registered.
func (r *Registry) IsValid(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// ListUserDBs returns every registered database name except system
// databases such as the trace store, sorted for deterministic output.
func (r *Registry) ListUserDBs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.names))
	for n := range r.names {
		if systemNames[n] {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RequireRegistered returns orcherr.CodeNotRegistered if name is not a
// registered database. Call sites that accept a database name from a
// request must gate on this before using it anywhere else.
func (r *Registry) RequireRegistered(name string) error {
	if !r.IsValid(name) {
		return orcherr.New(orcherr.CodeNotRegistered, "database not registered: "+name).
			WithComponent("idregistry")
	}
	return nil
}
