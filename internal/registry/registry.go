package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/contractvm/internal/artifact"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/manifest"
)

// Scanner reads archives. *artifact.Store is the production implementation.
type Scanner interface {
	Scan(ctx context.Context, archivePath string) (*artifact.Archive, error)
	ScanDirectory(ctx context.Context, dir string) ([]string, error)
}

// Registry holds every unit loaded during the life of the process.
type Registry struct {
	scanner Scanner

	mu        sync.RWMutex
	modules   map[string]map[string]contract.Unit // module -> unit name -> unit
	owners    map[string]string                   // unit name -> module
	entries   map[string]string                   // module -> entry unit name
	manifests map[string]*manifest.Manifest       // module -> manifest, when shipped
	common    map[string]contract.Unit            // unit name -> unit

	loads sync.Map // module name -> *loadFuture

	// ScanConcurrency bounds the number of archives scanned in parallel by
	// LoadCommon. Zero or less means unbounded.
	ScanConcurrency int
}

// New creates an empty Registry reading archives through scanner.
func New(scanner Scanner) *Registry {
	return &Registry{
		scanner:         scanner,
		modules:         make(map[string]map[string]contract.Unit),
		owners:          make(map[string]string),
		entries:         make(map[string]string),
		manifests:       make(map[string]*manifest.Manifest),
		common:          make(map[string]contract.Unit),
		ScanConcurrency: 4,
	}
}

// IsLoaded reports whether a module has been loaded.
func (r *Registry) IsLoaded(module string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[module]
	return ok
}

// EntryUnit returns the name of the module's entry unit.
func (r *Registry) EntryUnit(module string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.entries[module]
	return name, ok
}

// Manifest returns the manifest shipped with a module, or nil.
func (r *Registry) Manifest(module string) *manifest.Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifests[module]
}

// Resolve looks a unit up process-wide: first among module-private units via
// the reverse index, then in the common library.
func (r *Registry) Resolve(name string) (contract.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if module, ok := r.owners[name]; ok {
		if u, ok := r.modules[module][name]; ok {
			return u, true
		}
	}
	u, ok := r.common[name]
	return u, ok
}

// ResolveIn looks a unit up on behalf of module: first in that module's own
// units, then in the common library. Units private to other modules are
// never visible.
func (r *Registry) ResolveIn(module, name string) (contract.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.modules[module][name]; ok {
		return u, true
	}
	u, ok := r.common[name]
	return u, ok
}

// Modules returns the names of all loaded modules, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats is a point-in-time summary of the registry's content.
type Stats struct {
	Modules     int
	ModuleUnits int
	CommonUnits int
}

// Stats returns the current registry size.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		Modules:     len(r.modules),
		ModuleUnits: len(r.owners),
		CommonUnits: len(r.common),
	}
}
