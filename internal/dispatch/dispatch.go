// Package dispatch routes main, tx and query invocations into the entry unit
// of a module, loading the module on first use.
package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/contractvm/internal/artifact"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize"
	"github.com/specialistvlad/contractvm/internal/registry"
	"github.com/specialistvlad/contractvm/internal/resolver"
)

// Status is the outcome code of a tx invocation.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusOK {
		return "ok"
	}
	return "failed"
}

// Dispatcher invokes operations of registered modules. It is safe for
// concurrent use; every invocation gets its own resolver.
type Dispatcher struct {
	registry   *registry.Registry
	mat        materialize.Materializer
	base       resolver.Base
	env        *host.Env
	archiveDir string
	extension  string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaterializer sets the strategy that turns units into handles.
func WithMaterializer(m materialize.Materializer) Option {
	return func(d *Dispatcher) { d.mat = m }
}

// WithBase sets the host hook consulted before any unit lookup.
func WithBase(b resolver.Base) Option {
	return func(d *Dispatcher) { d.base = b }
}

// WithEnv attaches the host services handed to every operation. An Env
// already present in the invocation context wins.
func WithEnv(env *host.Env) Option {
	return func(d *Dispatcher) { d.env = env }
}

// WithArchiveDir sets the directory modules are loaded from on first use.
func WithArchiveDir(dir string) Option {
	return func(d *Dispatcher) { d.archiveDir = dir }
}

// WithExtension sets the archive file extension used for default paths.
func WithExtension(ext string) Option {
	return func(d *Dispatcher) { d.extension = ext }
}

// New creates a dispatcher over reg.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:   reg,
		archiveDir: ".",
		extension:  artifact.DefaultExtension,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.mat == nil {
		d.mat = materialize.ByKind{}
	}
	return d
}

// ArchivePath returns the default archive location of module.
func (d *Dispatcher) ArchivePath(module string) string {
	return filepath.Join(d.archiveDir, module+d.extension)
}

// Main runs the module's main operation with argv.
func (d *Dispatcher) Main(ctx context.Context, module string, argv []string) error {
	_, err := d.Invoke(ctx, module, contract.OpMain, argv)
	return err
}

// Tx runs a state-changing operation.
func (d *Dispatcher) Tx(ctx context.Context, module string, args []string) (Status, error) {
	if _, err := d.Invoke(ctx, module, contract.OpTx, args); err != nil {
		return StatusFailed, err
	}
	return StatusOK, nil
}

// Query runs a read-only operation and returns its results.
func (d *Dispatcher) Query(ctx context.Context, module string, args []string) ([]string, error) {
	return d.Invoke(ctx, module, contract.OpQuery, args)
}

// Invoke loads module if needed, resolves its entry unit and calls op with
// args. Only query results are returned; a query yielding nothing returns an
// empty, non-nil slice.
func (d *Dispatcher) Invoke(ctx context.Context, module string, op contract.Op, args []string) ([]string, error) {
	ctx, logger := ctxlog.With(ctx, "invocation", uuid.NewString(), "module", module, "op", string(op))
	start := time.Now()
	logger.Debug("Dispatching.", "args", len(args))

	if err := checkModuleName(module); err != nil {
		return nil, err
	}
	if err := d.registry.Load(ctx, module, d.ArchivePath(module)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", contract.ErrModuleNotFound, module, err)
	}

	entry, ok := d.registry.EntryUnit(module)
	if !ok {
		return nil, fmt.Errorf("%w: module %s", contract.ErrEntryNotFound, module)
	}

	res := resolver.New(module, d.registry, d.base, d.mat)
	ctx = resolver.WithContext(ctx, res)
	h, err := res.Materialize(ctx, entry)
	if err != nil {
		return nil, err
	}

	fn, ok := h.Operation(op)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not define %s", contract.ErrOperationNotFound, entry, op)
	}

	if decl, ok := d.registry.Manifest(module).Operation(op); ok {
		if err := decl.CheckArgs(args); err != nil {
			return nil, err
		}
	}

	if d.env != nil && !host.HasEnv(ctx) {
		ctx = host.WithEnv(ctx, d.env)
	}

	out, err := call(ctx, fn, args)
	if err != nil {
		logger.Debug("Operation failed.", "error", err, "elapsed", time.Since(start))
		return nil, &contract.ExecutionError{Module: module, Op: op, Cause: err}
	}
	logger.Debug("Operation completed.", "results", len(out), "elapsed", time.Since(start))

	if op != contract.OpQuery {
		return nil, nil
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// checkModuleName rejects names that would leave the archive directory.
func checkModuleName(module string) error {
	if module == "" {
		return fmt.Errorf("%w: empty module name", contract.ErrModuleNotFound)
	}
	if module == "." || module == ".." || strings.ContainsAny(module, `/\`) {
		return fmt.Errorf("%w: invalid module name %q", contract.ErrModuleNotFound, module)
	}
	return nil
}

// call runs fn, converting a panic into an error.
func call(ctx context.Context, fn contract.Operation, args []string) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Debug("Operation panicked.", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, args)
}
