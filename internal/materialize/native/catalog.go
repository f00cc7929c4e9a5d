// Package native binds compiled units to Go implementations compiled into the
// host binary.
//
// A link unit's bytes hold the key of an implementation registered in the
// Catalog; materializing the unit returns a handle over that implementation's
// dispatch table. The Catalog also serves as the resolver's base hook: units
// provided under a qualified name are supplied by the host itself and take
// precedence over anything found in archives.
package native

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/contractvm/internal/contract"
)

// Module is the interface that Go contract packages implement to register
// their implementations.
type Module interface {
	Register(c *Catalog)
}

// Implementation is the dispatch table of a native contract unit.
type Implementation struct {
	Operations map[contract.Op]contract.Operation
}

// Catalog holds every registered native implementation.
type Catalog struct {
	mu       sync.RWMutex
	linked   map[string]*Implementation // link key -> implementation
	provided map[string]*Implementation // qualified unit name -> implementation
}

// NewCatalog creates a Catalog and registers the given modules into it.
func NewCatalog(modules ...Module) *Catalog {
	c := &Catalog{
		linked:   make(map[string]*Implementation),
		provided: make(map[string]*Implementation),
	}
	for _, m := range modules {
		m.Register(c)
	}
	return c
}

// Register makes impl reachable from link units whose content is key.
func (c *Catalog) Register(key string, impl *Implementation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.linked[key]; exists {
		panic(fmt.Sprintf("native implementation with key '%s' already registered", key))
	}
	slog.Debug("Registering native implementation.", "key", key, "operations", len(impl.Operations))
	c.linked[key] = impl
}

// Provide supplies a unit under a qualified name directly from the host.
func (c *Catalog) Provide(name string, impl *Implementation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.provided[name]; exists {
		panic(fmt.Sprintf("host unit '%s' already provided", name))
	}
	slog.Debug("Providing host unit.", "name", name, "operations", len(impl.Operations))
	c.provided[name] = impl
}

// Keys returns the registered link keys, sorted.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.linked))
	for k := range c.linked {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Materialize binds a link unit to its registered implementation.
func (c *Catalog) Materialize(ctx context.Context, unit contract.Unit) (contract.Handle, error) {
	key := strings.TrimSpace(string(unit.Code))

	c.mu.RLock()
	impl, ok := c.linked[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unit %s links to unknown native implementation %q", unit.Name, key)
	}
	return &handle{name: unit.Name, impl: impl}, nil
}

// Lookup implements the resolver's base hook.
func (c *Catalog) Lookup(ctx context.Context, name string) (contract.Handle, bool) {
	c.mu.RLock()
	impl, ok := c.provided[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &handle{name: name, impl: impl}, true
}

type handle struct {
	name string
	impl *Implementation
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Operation(op contract.Op) (contract.Operation, bool) {
	fn, ok := h.impl.Operations[op]
	return fn, ok && fn != nil
}
