// Package greeter is a minimal native contract. Its tx operation records a
// greeting in the caller's local store and query reads it back.
package greeter

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize/native"
)

// Key is the link key archives use to reference this implementation.
const Key = "greeter"

// GreetingKey is the LocalDB key the greeting is stored under.
const GreetingKey = "greeting"

// Module implements native.Module for this package.
type Module struct{}

// Tx stores args[0] as the current greeting.
func Tx(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("greeter: tx needs a greeting")
	}
	local := host.FromContext(ctx).Local
	if local == nil {
		return nil, host.ErrServiceUnavailable
	}
	stored, err := local.Set(ctx, []byte(GreetingKey), []byte(args[0]))
	if err != nil {
		return nil, fmt.Errorf("greeter: store greeting: %w", err)
	}
	if !stored {
		return nil, errors.New("greeter: local store rejected the greeting")
	}
	ctxlog.FromContext(ctx).Info("Greeting recorded.", "greeting", args[0])
	return nil, nil
}

// Query returns the stored greeting, or nothing when none was recorded.
func Query(ctx context.Context, _ []string) ([]string, error) {
	local := host.FromContext(ctx).Local
	if local == nil {
		return nil, host.ErrServiceUnavailable
	}
	v, ok, err := local.Get(ctx, []byte(GreetingKey))
	if err != nil || !ok {
		return nil, err
	}
	return []string{string(v)}, nil
}

// Main greets every name in argv.
func Main(ctx context.Context, argv []string) ([]string, error) {
	for _, name := range argv {
		ctxlog.FromContext(ctx).Info("Hello.", "name", name)
	}
	return nil, nil
}

// Register registers the implementation with the catalog.
func (m *Module) Register(c *native.Catalog) {
	c.Register(Key, &native.Implementation{
		Operations: map[contract.Op]contract.Operation{
			contract.OpMain:  Main,
			contract.OpTx:    Tx,
			contract.OpQuery: Query,
		},
	})
}
