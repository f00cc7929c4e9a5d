// Package resolver maps a unit name requested during one dispatch to an
// executable handle.
//
// Lookup order is fixed: the host's base hook, then the dispatching module's
// private units, then the common library. Units private to other modules are
// never visible. A Resolver lives for a single dispatch and is not safe for
// concurrent use. The dispatcher attaches it to the invocation context, so
// running code can reach further units with FromContext.
package resolver

import (
	"context"
	"fmt"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/materialize"
)

// Source is the read side of the module registry.
type Source interface {
	ResolveIn(module, name string) (contract.Unit, bool)
}

// Base supplies host-provided handles that take precedence over any unit.
type Base interface {
	Lookup(ctx context.Context, name string) (contract.Handle, bool)
}

// Resolver resolves unit names on behalf of one module.
type Resolver struct {
	module string
	source Source
	base   Base
	mat    materialize.Materializer
	cache  map[string]contract.Handle
}

// New creates a resolver for module. base may be nil.
func New(module string, source Source, base Base, mat materialize.Materializer) *Resolver {
	return &Resolver{
		module: module,
		source: source,
		base:   base,
		mat:    mat,
		cache:  make(map[string]contract.Handle),
	}
}

// Module returns the module this resolver serves.
func (r *Resolver) Module() string {
	return r.module
}

// Materialize returns the handle for name. Repeated requests for the same
// name return the same handle.
func (r *Resolver) Materialize(ctx context.Context, name string) (contract.Handle, error) {
	if h, ok := r.cache[name]; ok {
		return h, nil
	}

	logger := ctxlog.FromContext(ctx).With("module", r.module, "unit", name)

	if r.base != nil {
		if h, ok := r.base.Lookup(ctx, name); ok {
			logger.Debug("Unit resolved by host.")
			r.cache[name] = h
			return h, nil
		}
	}

	unit, ok := r.source.ResolveIn(r.module, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (requested by %s)", contract.ErrUnitNotFound, name, r.module)
	}

	h, err := r.mat.Materialize(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize unit %s: %w", name, err)
	}
	logger.Debug("Unit materialized.", "kind", unit.Kind)
	r.cache[name] = h
	return h, nil
}

type resolverKey struct{}

// WithContext returns a context carrying r.
func WithContext(ctx context.Context, r *Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// FromContext returns the resolver of the dispatch ctx belongs to.
func FromContext(ctx context.Context) (*Resolver, bool) {
	r, ok := ctx.Value(resolverKey{}).(*Resolver)
	return r, ok && r != nil
}
