// Package kvstore is a native contract over the shared contract state.
package kvstore

import (
	"context"
	"fmt"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize/native"
)

// Key is the link key archives use to reference this implementation.
const Key = "kvstore"

// Module implements native.Module for this package.
type Module struct{}

// Set stores args[1] under args[0].
func Set(ctx context.Context, args []string) ([]string, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("kvstore: tx expects key and value, got %d argument(s)", len(args))
	}
	state := host.FromContext(ctx).State
	if state == nil {
		return nil, host.ErrServiceUnavailable
	}
	if err := state.Set(ctx, []byte(args[0]), []byte(args[1])); err != nil {
		return nil, fmt.Errorf("kvstore: set %q: %w", args[0], err)
	}
	return nil, nil
}

// Get returns the value of every requested key that exists, in order.
func Get(ctx context.Context, args []string) ([]string, error) {
	state := host.FromContext(ctx).State
	if state == nil {
		return nil, host.ErrServiceUnavailable
	}
	out := make([]string, 0, len(args))
	for _, k := range args {
		v, ok, err := state.Get(ctx, []byte(k))
		if err != nil {
			return nil, fmt.Errorf("kvstore: get %q: %w", k, err)
		}
		if ok {
			out = append(out, string(v))
		}
	}
	return out, nil
}

// Register registers the implementation with the catalog.
func (m *Module) Register(c *native.Catalog) {
	c.Register(Key, &native.Implementation{
		Operations: map[contract.Op]contract.Operation{
			contract.OpTx:    Set,
			contract.OpQuery: Get,
		},
	})
}
