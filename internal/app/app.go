package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/specialistvlad/contractvm/internal/artifact"
	"github.com/specialistvlad/contractvm/internal/config"
	"github.com/specialistvlad/contractvm/internal/contract"
	"github.com/specialistvlad/contractvm/internal/ctxlog"
	"github.com/specialistvlad/contractvm/internal/dispatch"
	"github.com/specialistvlad/contractvm/internal/host"
	"github.com/specialistvlad/contractvm/internal/materialize"
	"github.com/specialistvlad/contractvm/internal/materialize/native"
	"github.com/specialistvlad/contractvm/internal/materialize/wasm"
	"github.com/specialistvlad/contractvm/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	model      *config.Model
	registry   *registry.Registry
	catalog    *native.Catalog
	wasm       *wasm.Materializer
	env        *host.Env
	redis      *redis.Client
	dispatcher *dispatch.Dispatcher
}

// NewApp builds an App from cfg. Log output goes to logW, query results to
// outW. When no modules are given the core modules are registered.
func NewApp(ctx context.Context, outW, logW io.Writer, cfg *Config, modules ...native.Module) (*App, error) {
	model, err := config.Load(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(model, cfg)
	if err := model.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(model.Log.Level, model.Log.Format, logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	catalog := native.NewCatalog(modules...)
	logger.Debug("Native contracts registered.", "count", len(modules), "keys", catalog.Keys())

	wasmMat, err := wasm.New(ctx, wasm.WithMemoryLimitPages(model.Wasm.MemoryLimitPages))
	if err != nil {
		return nil, err
	}

	env, client, err := newEnv(ctx, model)
	if err != nil {
		_ = wasmMat.Close(ctx)
		return nil, err
	}

	store := artifact.NewStore(artifact.WithExtension(model.ArchiveExtension))
	reg := registry.New(store)
	reg.ScanConcurrency = model.ScanConcurrency

	disp := dispatch.New(reg,
		dispatch.WithArchiveDir(model.ArchiveDir),
		dispatch.WithExtension(store.Extension()),
		dispatch.WithBase(catalog),
		dispatch.WithEnv(env),
		dispatch.WithMaterializer(materialize.ByKind{
			contract.KindLink: catalog,
			contract.KindWasm: wasmMat,
		}),
	)

	return &App{
		outW:       outW,
		logger:     logger,
		model:      model,
		registry:   reg,
		catalog:    catalog,
		wasm:       wasmMat,
		env:        env,
		redis:      client,
		dispatcher: disp,
	}, nil
}

func applyOverrides(model *config.Model, cfg *Config) {
	if cfg.LibDir != "" {
		model.LibDir = cfg.LibDir
	}
	if cfg.ArchiveDir != "" {
		model.ArchiveDir = cfg.ArchiveDir
	}
	if cfg.LogLevel != "" {
		model.Log.Level = cfg.LogLevel
	}
	if cfg.LogFormat != "" {
		model.Log.Format = cfg.LogFormat
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Dispatcher returns the application's dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Env returns the host services handed to contracts.
func (a *App) Env() *host.Env {
	return a.env
}

// Close releases the wasm runtime and the state backend connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.wasm.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
