package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/cmdtree"
	"github.com/aretw0/cmdtree/internal/config"
	"github.com/aretw0/cmdtree/internal/metrics"
	"github.com/aretw0/cmdtree/internal/runtime"
	"github.com/aretw0/cmdtree/pkg/adapters/file"
	"github.com/aretw0/cmdtree/pkg/adapters/memory"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/aretw0/cmdtree/pkg/adapters/process"
	redisadapter "github.com/aretw0/cmdtree/pkg/adapters/redis"
	"github.com/aretw0/cmdtree/pkg/ports"
	"github.com/aretw0/cmdtree/pkg/viewstate"
	backend "github.com/redis/go-redis/v9"
)

// App wires the configured source, view store and viewer for a command.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Sink    *outline.Sink
	Viewer  *cmdtree.Viewer
	Metrics *metrics.Metrics
	Source  ports.SnapshotSource
	Views   *viewstate.Manager

	memory *memory.Source
	file   *file.Source
	redis  *backend.Client
}

// NewApp builds an App from cfg. The caller must Close it.
func NewApp(cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Sink:    outline.New(),
		Metrics: metrics.New(),
	}

	if cfg.UsesRedis() {
		a.redis = backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	switch cfg.Source.Kind {
	case config.KindFile:
		a.file = file.NewSource(cfg.Source.Path, logger)
		a.Source = a.file
	case config.KindRedis:
		a.Source = redisadapter.NewSource(a.redis, cfg.Source.Key)
	case config.KindExec:
		a.Source = process.NewSource(cfg.Source.Command, cfg.Source.Args,
			process.WithEnv(cfg.Source.Env),
			process.WithTimeout(cfg.Source.Timeout))
	case config.KindMemory:
		a.memory = memory.NewSource()
		a.Source = a.memory
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	var store ports.ViewStore
	var mgrOpts []viewstate.Option
	switch cfg.State.Kind {
	case config.KindFile:
		store = file.New(cfg.State.Dir)
	case config.KindRedis:
		store = redisadapter.NewFromClient(a.redis,
			redisadapter.WithPrefix(cfg.Redis.Prefix),
			redisadapter.WithTTL(cfg.Redis.TTL),
		)
		mgrOpts = append(mgrOpts, viewstate.WithLocker(redisadapter.NewLocker(a.redis, cfg.Redis.Prefix)))
	case config.KindMemory:
		store = memory.NewStore()
	default:
		return nil, fmt.Errorf("unknown state kind %q", cfg.State.Kind)
	}
	a.Views = viewstate.NewManager(store, append(mgrOpts, viewstate.WithLogger(logger))...)

	viewer, err := cmdtree.New(a.Sink,
		cmdtree.WithHold(cfg.Hold),
		cmdtree.WithLogger(logger),
		cmdtree.WithMetrics(a.Metrics),
	)
	if err != nil {
		return nil, err
	}
	a.Viewer = viewer
	return a, nil
}

// Trigger returns a channel that fires when the source changes, or nil when
// the source can only be polled.
func (a *App) Trigger(ctx context.Context) (<-chan struct{}, error) {
	switch {
	case a.file != nil:
		return a.file.Watch(ctx)
	case a.memory != nil:
		return a.memory.Updates(), nil
	default:
		return nil, nil
	}
}

// Driver builds a runtime.Driver for the configured source.
func (a *App) Driver(ctx context.Context, opts ...runtime.DriverOption) (*runtime.Driver, error) {
	trigger, err := a.Trigger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch source: %w", err)
	}
	base := []runtime.DriverOption{
		runtime.WithInterval(a.Config.PollInterval),
		runtime.WithLogger(a.Logger),
	}
	if trigger != nil {
		base = append(base, runtime.WithTrigger(trigger))
	}
	return runtime.NewDriver(a.Viewer, a.Source, append(base, opts...)...), nil
}

// RestoreView loads the configured saved view into the viewer.
func (a *App) RestoreView(ctx context.Context) error {
	return a.Viewer.Load(ctx, a.Views, a.Config.State.View)
}

// SaveView persists the viewer state as the configured view.
func (a *App) SaveView(ctx context.Context) error {
	return a.Viewer.Save(ctx, a.Views, a.Config.State.View)
}

// Close releases timers and connections.
func (a *App) Close() error {
	var errs []error
	if a.Viewer != nil {
		errs = append(errs, a.Viewer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
