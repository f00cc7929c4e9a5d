package contract

import (
	"context"
	"fmt"
)

// Kind identifies how the bytes of a compiled unit are turned into something
// executable.
type Kind string

const (
	// KindWasm units hold a WebAssembly binary.
	KindWasm Kind = "wasm"
	// KindLink units hold the key of a Go implementation registered by the host.
	KindLink Kind = "link"
)

// Unit is one named chunk of executable code taken from an archive.
// Units are never mutated after they are scanned.
type Unit struct {
	Name string
	Kind Kind
	Code []byte
}

func (u Unit) String() string {
	return fmt.Sprintf("%s (%s, %d bytes)", u.Name, u.Kind, len(u.Code))
}

// Op is the name of a public operation on an entry unit.
type Op string

const (
	OpMain  Op = "main"
	OpTx    Op = "tx"
	OpQuery Op = "query"
)

// ParseOp validates an operation name coming from outside the process.
func ParseOp(s string) (Op, error) {
	switch op := Op(s); op {
	case OpMain, OpTx, OpQuery:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation %q: must be one of 'main', 'tx' or 'query'", s)
	}
}

// Operation is a single callable exposed by a Handle. It receives the argument
// vector of one invocation. Only `query` operations are expected to return
// results.
type Operation func(ctx context.Context, args []string) ([]string, error)

// Handle is a materialized unit that can be invoked.
type Handle interface {
	// Name is the qualified name of the unit the handle was built from.
	Name() string
	// Operation looks up a named operation in the handle's dispatch table.
	Operation(name Op) (Operation, bool)
}
