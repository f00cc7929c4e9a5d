package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/contractvm/internal/artifact"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// loadFuture is the single-assignment completion signal of one module load.
// err is written once, before done is closed.
type loadFuture struct {
	done chan struct{}
	err  error
}

// Load makes module available, scanning archivePath if it has not been loaded
// yet. Concurrent first callers for the same name share a single scan; the
// ones that did not perform it wait for its outcome or for ctx.
//
// The module is registered under the name derived from the archive file, not
// the name passed by the caller. A failed load leaves the registry untouched
// and releases the claim, so a later call may try again.
func (r *Registry) Load(ctx context.Context, module, archivePath string) error {
	if r.IsLoaded(module) {
		return nil
	}

	claim := &loadFuture{done: make(chan struct{})}
	actual, inFlight := r.loads.LoadOrStore(module, claim)
	fut := actual.(*loadFuture)
	if inFlight {
		select {
		case <-fut.done:
			return fut.err
		case <-ctx.Done():
			return fmt.Errorf("waiting for load of %s: %w", module, ctx.Err())
		}
	}

	fut.err = r.load(ctx, module, archivePath)
	close(fut.done)
	if fut.err != nil {
		r.loads.CompareAndDelete(module, fut)
	}
	return fut.err
}

func (r *Registry) load(ctx context.Context, module, archivePath string) error {
	ctx, logger := ctxlog.With(ctx, "module", module)
	logger.Debug("Loading module.", "archive", archivePath)

	archive, err := r.scanner.Scan(ctx, archivePath)
	if err != nil {
		logger.Debug("Module archive could not be scanned.", "error", err)
		return err
	}
	if archive.Module != module {
		logger.Warn("Archive name differs from requested module; registering under the archive name.", "archive_module", archive.Module)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.modules[archive.Module]; ok {
		logger.Debug("Module already registered under archive name.", "archive_module", archive.Module)
		return nil
	}

	units := make(map[string]contract.Unit, len(archive.Units))
	entry := ""
	for _, u := range archive.Units {
		if owner, taken := r.owners[u.Name]; taken {
			logger.Warn("Unit already defined by another module; keeping the first definition.", "unit", u.Name, "owner", owner)
			continue
		}
		if _, dup := units[u.Name]; dup {
			continue
		}
		units[u.Name] = u
		if strings.HasSuffix(u.Name, archive.Module) {
			entry = u.Name
		}
	}

	if len(units) == 0 {
		return fmt.Errorf("%w: %s", contract.ErrEmptyArtifact, archivePath)
	}

	if m := archive.Manifest; m != nil {
		if m.Entry != "" {
			if _, ok := units[m.Entry]; ok {
				entry = m.Entry
			} else {
				logger.Warn("Declared entry unit is not part of the module; no entry recorded.", "entry", m.Entry)
				entry = ""
			}
		}
		r.manifests[archive.Module] = m
	}

	r.modules[archive.Module] = units
	for name := range units {
		r.owners[name] = archive.Module
	}
	if entry != "" {
		r.entries[archive.Module] = entry
	}

	logger.Info("Module loaded.", "units", len(units), "entry", entry)
	return nil
}

// LoadCommon loads every archive in dir into the common library and returns
// the number of units added. Archives are scanned in parallel; one that cannot
// be scanned is logged and skipped. Units are inserted in archive path order
// and only if no module and no earlier common archive already defines the
// name, which makes repeated calls over the same content no-ops.
func (r *Registry) LoadCommon(ctx context.Context, dir string) (int, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading common library.", "dir", dir)

	paths, err := r.scanner.ScanDirectory(ctx, dir)
	if err != nil {
		return 0, err
	}

	archives := r.scanAll(ctx, paths)

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, archive := range archives {
		if archive == nil {
			continue
		}
		for _, u := range archive.Units {
			if _, ok := r.common[u.Name]; ok {
				continue
			}
			if _, ok := r.owners[u.Name]; ok {
				continue
			}
			r.common[u.Name] = u
			added++
		}
	}

	logger.Info("Common library loaded.", "dir", dir, "archives", len(paths), "units_added", added)
	return added, nil
}

// scanAll scans paths concurrently. The result is index-aligned with paths;
// archives that failed to scan are nil.
func (r *Registry) scanAll(ctx context.Context, paths []string) []*artifact.Archive {
	logger := ctxlog.FromContext(ctx)
	archives := make([]*artifact.Archive, len(paths))

	var g errgroup.Group
	if r.ScanConcurrency > 0 {
		g.SetLimit(r.ScanConcurrency)
	}
	for i, p := range paths {
		g.Go(func() error {
			archive, err := r.scanner.Scan(ctx, p)
			if err != nil {
				logger.Error("Skipping common archive.", "path", p, "error", err)
				return nil
			}
			archives[i] = archive
			return nil
		})
	}
	_ = g.Wait()
	return archives
}
