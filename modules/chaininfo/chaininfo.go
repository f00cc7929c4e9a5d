// Package chaininfo provides the std.Chain unit. Any module can resolve it by
// name to read the context of the transaction being executed; no archive
// needs to ship it.
package chaininfo

import (
	"context"
	"strconv"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize/native"
	"github.com/specialistvlad/contractvm/internal/resolver"
)

// Name is the qualified unit name the implementation is provided under.
const Name = "std.Chain"

// Module implements native.Module for this package.
type Module struct{}

// Info returns the calling module, the current height, the sender, the block
// hash and the transaction hash.
func Info(ctx context.Context, _ []string) ([]string, error) {
	chain := host.FromContext(ctx).Chain
	if chain == nil {
		return nil, host.ErrServiceUnavailable
	}
	caller := ""
	if r, ok := resolver.FromContext(ctx); ok {
		caller = r.Module()
	}
	return []string{
		caller,
		strconv.FormatUint(chain.CurrentHeight(), 10),
		chain.From(),
		chain.BlockHash(),
		chain.TxHash(),
	}, nil
}

// Register provides the implementation under Name.
func (m *Module) Register(c *native.Catalog) {
	c.Provide(Name, &native.Implementation{
		Operations: map[contract.Op]contract.Operation{
			contract.OpQuery: Info,
		},
	})
}
