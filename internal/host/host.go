// Package host defines the chain services a dispatched contract may call.
//
// The loader never calls these services itself. The dispatcher only attaches
// the host's Env to the context of each invocation, from which contract code
// (native operations, or the wasm host functions acting on behalf of a wasm
// unit) picks the services it needs.
package host

import (
	"context"
	"errors"
)

// ErrServiceUnavailable is returned by contracts when a service they need was
// not configured by the host.
var ErrServiceUnavailable = errors.New("host service unavailable")

// StateDB is the consensus state store.
type StateDB interface {
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	Set(ctx context.Context, key, value []byte) error
}

// LocalDB is the node-local index store. Set reports whether the value was
// stored.
type LocalDB interface {
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	Set(ctx context.Context, key, value []byte) (bool, error)
}

// Blockchain exposes the context of the transaction being executed.
type Blockchain interface {
	CurrentHeight() uint64
	From() string
	Random() []byte
	BlockHash() string
	TxHash() string
}

// Account moves balances between addresses.
type Account interface {
	Transfer(from, to string, amount int64) bool
	Freeze(addr string, amount int64) bool
	Activate(addr string, amount int64) bool
}

// Env bundles the services available to one invocation. Any field may be nil
// when the host does not offer that service.
type Env struct {
	State    StateDB
	Local    LocalDB
	Chain    Blockchain
	Accounts Account
}

type envKey struct{}

// WithEnv returns a context carrying env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// FromContext returns the Env attached to ctx, or an empty Env.
func FromContext(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok && env != nil {
		return env
	}
	return &Env{}
}

// HasEnv reports whether ctx carries an Env.
func HasEnv(ctx context.Context) bool {
	env, ok := ctx.Value(envKey{}).(*Env)
	return ok && env != nil
}
