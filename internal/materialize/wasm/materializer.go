// Package wasm materializes WebAssembly units with wazero.
//
// A wasm entry unit exports its public operations as functions named `main`,
// `tx` and `query`, each taking no parameters and returning nothing. Arguments
// and results travel through the host module `env` (see abi.go). Every call
// runs in a fresh module instance, so no memory is shared between invocations.
//
// Any other import module names a unit. Those imports are resolved at call
// time through the resolver of the current dispatch (module-private units,
// then the common library) and instantiated under their unit name in a
// runtime private to that call.
package wasm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/resolver"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Materializer compiles wasm units. It is safe for concurrent use.
type Materializer struct {
	runtime wazero.Runtime
	config  wazero.RuntimeConfig
	cache   wazero.CompilationCache

	mu       sync.Mutex
	compiled map[string]wazero.CompiledModule // name@sha256 -> module
}

// Option configures the wazero runtime.
type Option func(wazero.RuntimeConfig) wazero.RuntimeConfig

// WithMemoryLimitPages caps the linear memory of every instance, in 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c wazero.RuntimeConfig) wazero.RuntimeConfig {
		if pages == 0 {
			return c
		}
		return c.WithMemoryLimitPages(pages)
	}
}

// New creates a runtime and instantiates the host module into it.
func New(ctx context.Context, opts ...Option) (*Materializer, error) {
	cache := wazero.NewCompilationCache()
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true).WithCompilationCache(cache)
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		cache.Close(ctx)
		return nil, err
	}
	return &Materializer{
		runtime:  rt,
		config:   cfg,
		cache:    cache,
		compiled: make(map[string]wazero.CompiledModule),
	}, nil
}

func newRuntime(ctx context.Context, cfg wazero.RuntimeConfig) (wazero.Runtime, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	if err := instantiateHostModule(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate host module: %w", err)
	}
	return rt, nil
}

// Close releases the runtime and every compiled module.
func (m *Materializer) Close(ctx context.Context) error {
	return errors.Join(m.runtime.Close(ctx), m.cache.Close(ctx))
}

// Materialize compiles unit and returns a handle over its exported
// operations. Compilation is cached by unit name and content.
func (m *Materializer) Materialize(ctx context.Context, unit contract.Unit) (contract.Handle, error) {
	compiled, err := m.compile(ctx, unit)
	if err != nil {
		return nil, err
	}

	h := &handle{
		mat:      m,
		name:     unit.Name,
		code:     unit.Code,
		compiled: compiled,
		ops:      make(map[contract.Op]bool),
	}
	for _, def := range compiled.ImportedFunctions() {
		mod, _, _ := def.Import()
		if mod != HostModule && !slices.Contains(h.imports, mod) {
			h.imports = append(h.imports, mod)
		}
	}
	for name, def := range compiled.ExportedFunctions() {
		op, err := contract.ParseOp(name)
		if err != nil {
			continue
		}
		if len(def.ParamTypes()) != 0 || len(def.ResultTypes()) != 0 {
			ctxlog.FromContext(ctx).Warn("Ignoring wasm export with unsupported signature.", "unit", unit.Name, "export", name)
			continue
		}
		h.ops[op] = true
	}
	return h, nil
}

func (m *Materializer) compile(ctx context.Context, unit contract.Unit) (wazero.CompiledModule, error) {
	sum := sha256.Sum256(unit.Code)
	key := unit.Name + "@" + hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.compiled[key]; ok {
		return c, nil
	}

	c, err := m.runtime.CompileModule(ctx, unit.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to compile wasm unit %s: %w", unit.Name, err)
	}
	m.compiled[key] = c
	ctxlog.FromContext(ctx).Debug("Wasm unit compiled.", "unit", unit.Name, "bytes", len(unit.Code))
	return c, nil
}

type handle struct {
	mat      *Materializer
	name     string
	code     []byte
	compiled wazero.CompiledModule
	imports  []string // unit names, in import order
	ops      map[contract.Op]bool
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Operation(op contract.Op) (contract.Operation, bool) {
	if !h.ops[op] {
		return nil, false
	}
	return func(ctx context.Context, args []string) ([]string, error) {
		return h.call(ctx, op, args)
	}, true
}

func (h *handle) call(ctx context.Context, op contract.Op, args []string) ([]string, error) {
	f := &frame{args: args}
	ctx = withFrame(ctx, f)

	rt, compiled := h.mat.runtime, h.compiled
	if len(h.imports) > 0 {
		linkRT, err := newRuntime(ctx, h.mat.config)
		if err != nil {
			return nil, err
		}
		defer linkRT.Close(ctx)

		if err := link(ctx, linkRT, h, map[string]bool{}, []string{h.name}); err != nil {
			return nil, err
		}
		if compiled, err = linkRT.CompileModule(ctx, h.code); err != nil {
			return nil, fmt.Errorf("failed to compile wasm unit %s: %w", h.name, err)
		}
		rt = linkRT
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s: %w", h.name, err)
	}
	defer mod.Close(ctx)

	if err := callExport(ctx, mod, string(op)); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// link instantiates every unit h imports into rt under its unit name,
// dependencies first. path holds the chain of importers, for cycle detection.
func link(ctx context.Context, rt wazero.Runtime, h *handle, linked map[string]bool, path []string) error {
	res, ok := resolver.FromContext(ctx)
	if !ok {
		return fmt.Errorf("unit %s imports %v but no resolver is attached", h.name, h.imports)
	}

	for _, name := range h.imports {
		if linked[name] {
			continue
		}
		if slices.Contains(path, name) {
			return fmt.Errorf("import cycle: %s -> %s", strings.Join(path, " -> "), name)
		}

		dep, err := res.Materialize(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to resolve import %s of %s: %w", name, h.name, err)
		}
		wh, ok := dep.(*handle)
		if !ok {
			return fmt.Errorf("import %s of %s is not a wasm unit", name, h.name)
		}

		next := append(append([]string(nil), path...), name)
		if err := link(ctx, rt, wh, linked, next); err != nil {
			return err
		}

		compiled, err := rt.CompileModule(ctx, wh.code)
		if err != nil {
			return fmt.Errorf("failed to compile wasm unit %s: %w", name, err)
		}
		if _, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name).WithStartFunctions()); err != nil {
			return fmt.Errorf("failed to instantiate import %s of %s: %w", name, h.name, err)
		}
		linked[name] = true
		ctxlog.FromContext(ctx).Debug("Wasm import linked.", "unit", h.name, "import", name)
	}
	return nil
}

func callExport(ctx context.Context, mod api.Module, name string) error {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return fmt.Errorf("export %q disappeared from instance", name)
	}
	_, err := fn.Call(ctx)
	return err
}
