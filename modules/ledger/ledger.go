// Package ledger moves balances between accounts on behalf of the sender of
// the current transaction.
package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize/native"
)

// Key is the link key archives use to reference this implementation.
const Key = "ledger"

// Module implements native.Module for this package.
type Module struct{}

// Transfer sends args[1] units from the transaction sender to args[0].
func Transfer(ctx context.Context, args []string) ([]string, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ledger: tx expects recipient and amount, got %d argument(s)", len(args))
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		return nil, fmt.Errorf("ledger: invalid amount %q", args[1])
	}

	env := host.FromContext(ctx)
	if env.Chain == nil || env.Accounts == nil {
		return nil, host.ErrServiceUnavailable
	}
	from := env.Chain.From()
	if !env.Accounts.Transfer(from, args[0], amount) {
		return nil, fmt.Errorf("ledger: transfer of %d from %s to %s rejected", amount, from, args[0])
	}
	ctxlog.FromContext(ctx).Info("Transfer applied.",
		"from", from, "to", args[0], "amount", amount,
		"height", env.Chain.CurrentHeight(), "tx", env.Chain.TxHash())
	return nil, nil
}

// Register registers the implementation with the catalog.
func (m *Module) Register(c *native.Catalog) {
	c.Register(Key, &native.Implementation{
		Operations: map[contract.Op]contract.Operation{
			contract.OpTx: Transfer,
		},
	})
}
