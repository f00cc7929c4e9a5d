// Package materialize turns the raw bytes of a compiled unit into an
// executable contract.Handle.
//
// How bytes become code depends on the platform, so the capability is an
// interface with one strategy per unit kind: the native package binds link
// units to Go implementations registered by the host, the wasm package
// compiles WebAssembly units.
package materialize

import (
	"context"
	"fmt"

	"github.com/specialistvlad/contractvm/internal/contract"
)

// Materializer builds an invocable handle from a compiled unit.
type Materializer interface {
	Materialize(ctx context.Context, unit contract.Unit) (contract.Handle, error)
}

// Func adapts a function to the Materializer interface.
type Func func(ctx context.Context, unit contract.Unit) (contract.Handle, error)

// Materialize implements Materializer.
func (f Func) Materialize(ctx context.Context, unit contract.Unit) (contract.Handle, error) {
	return f(ctx, unit)
}

// ByKind dispatches to the materializer registered for the unit's kind.
type ByKind map[contract.Kind]Materializer

// Materialize implements Materializer.
func (m ByKind) Materialize(ctx context.Context, unit contract.Unit) (contract.Handle, error) {
	mat, ok := m[unit.Kind]
	if !ok {
		return nil, fmt.Errorf("no materializer for unit %s of kind %q", unit.Name, unit.Kind)
	}
	return mat.Materialize(ctx, unit)
}
