package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
)

// Start preloads the common library. A missing library directory is not an
// error; the host then runs with an empty common layer.
func (a *App) Start(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	dir := a.model.LibDir

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("No common library directory.", "dir", dir)
		return nil
	}

	added, err := a.registry.LoadCommon(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to load common library: %w", err)
	}
	a.logger.Debug("Common library ready.", "dir", dir, "units", added)
	return nil
}

// Run executes the invocation described by cfg.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	logger := a.logger.With("module", cfg.Module, "op", string(cfg.Op))
	start := time.Now()

	if cfg.ArchivePath != "" {
		if err := a.registry.Load(ctx, cfg.Module, cfg.ArchivePath); err != nil {
			return fmt.Errorf("%w: %s: %w", contract.ErrModuleNotFound, cfg.Module, err)
		}
	}

	switch cfg.Op {
	case contract.OpTx:
		status, err := a.dispatcher.Tx(ctx, cfg.Module, cfg.Args)
		logger.Info("Transaction finished.", "status", status.String(), "elapsed", time.Since(start))
		return err
	case contract.OpQuery:
		out, err := a.dispatcher.Query(ctx, cfg.Module, cfg.Args)
		if err != nil {
			return err
		}
		for _, line := range out {
			fmt.Fprintln(a.outW, line)
		}
		logger.Info("Query finished.", "results", len(out), "elapsed", time.Since(start))
		return nil
	default:
		if err := a.dispatcher.Main(ctx, cfg.Module, cfg.Args); err != nil {
			return err
		}
		logger.Info("Execution finished.", "elapsed", time.Since(start))
		return nil
	}
}
