package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/adapters/file"
	archive "github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/i18n"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/loam"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is the runtime shared by the serve and mcp commands.
type App struct {
	Manager    *session.Manager
	Metrics    *observability.Metrics
	Translator *i18n.Catalog
	Logger     *slog.Logger

	closers []func() error
}

// Close detaches live sessions and releases backend connections.
func (a *App) Close() error {
	if a.Manager != nil {
		a.Manager.Close()
	}
	return a.closeAll()
}

// Build wires the configured backends into a session manager.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Logger: logger}

	translator, err := createTranslator(cfg)
	if err != nil {
		return nil, err
	}
	app.Translator = translator

	sessionOpts := []arbor.Option{
		arbor.WithTranslator(translator),
		arbor.WithZoomStep(cfg.ZoomStep),
		arbor.WithLogger(logger),
	}
	if cfg.Collaboration {
		sessionOpts = append(sessionOpts, arbor.WithCollaboration())
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.Metrics = observability.NewMetrics(reg)
		sessionOpts = append(sessionOpts, arbor.WithLifecycleHooks(app.Metrics.Hooks(logger)))
	}

	scope, err := app.createDownloads(cfg)
	if err != nil {
		return nil, err
	}

	store, managerOpts, err := app.createStore(ctx, cfg)
	if err != nil {
		_ = app.closeAll()
		return nil, err
	}
	if store, err = sealStore(store, cfg.Store); err != nil {
		_ = app.closeAll()
		return nil, err
	}
	managerOpts = append(managerOpts, session.WithLogger(logger))

	newEngine := func() ports.DiagramEngine {
		return memory.NewEngine(memory.WithTranslator(translator))
	}
	app.Manager = session.NewManager(store, session.NewFactory(newEngine, scope, sessionOpts...), managerOpts...)

	logger.Debug("Runtime ready",
		"store", cfg.StoreBackend(),
		"exports", cfg.Exports.Backend,
		"locale", translator.Locale(),
		"metrics", cfg.Metrics.Enabled)
	return app, nil
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func createTranslator(cfg config.Config) (*i18n.Catalog, error) {
	if cfg.Catalog == "" {
		return i18n.Builtin(cfg.Locale), nil
	}
	catalog, err := i18n.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// createDownloads returns the per-session downloader scope.
func (a *App) createDownloads(cfg config.Config) (session.Scope, error) {
	switch cfg.Exports.Backend {
	case config.ExportLoam:
		repo, err := archive.Open(cfg.Exports.Dir, loam.WithVersioning(false))
		if err != nil {
			return nil, err
		}
		return func(id string) []arbor.Option {
			return []arbor.Option{arbor.WithDownloader(repo.Scoped(id))}
		}, nil
	case config.ExportFile:
		dir := file.NewDownloads(cfg.Exports.Dir)
		return func(id string) []arbor.Option {
			return []arbor.Option{arbor.WithDownloader(dir.Scoped(id))}
		}, nil
	}
	return nil, fmt.Errorf("unknown export backend %q", cfg.Exports.Backend)
}

// sealStore wraps the store with encryption at rest when a key is configured.
func sealStore(store ports.SnapshotStore, cfg config.StoreConfig) (ports.SnapshotStore, error) {
	if cfg.EncryptionKey == "" {
		return store, nil
	}
	active, err := middleware.DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	mw, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mw), nil
}

func (a *App) createStore(ctx context.Context, cfg config.Config) (ports.SnapshotStore, []session.Option, error) {
	switch cfg.StoreBackend() {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil
	case config.StoreFile:
		return file.NewStore(cfg.Store.Dir), nil, nil
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithTTL(cfg.Redis.TTL),
			redis.WithPrefix(cfg.Redis.Prefix))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, store.Close)
		locker := redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		return store, []session.Option{
			session.WithLocker(locker),
			session.WithLockTTL(cfg.Redis.LockTTL),
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
