package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/pkg/adapters/file"
	loamAdapter "github.com/aretw0/lattice/pkg/adapters/loam"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/registry"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/aretw0/loam"
)

// backends holds the adapters selected by the configuration.
type backends struct {
	source       ports.GraphSource
	store        ports.ChangeLogStore
	locker       ports.DistributedLocker
	interactions *registry.Registry
	closers      []io.Closer
}

func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func openSource(cfg config.Config) (ports.GraphSource, error) {
	switch cfg.Source.Kind {
	case config.SourceLoam:
		repo, err := loam.Init(cfg.Source.Dir,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init loam: %w", err)
		}
		return loamAdapter.New(loam.NewTypedRepository[loamAdapter.StateMetadata](repo)), nil
	default:
		return file.NewSource(cfg.Source.Dir), nil
	}
}

// openInteractions returns the built-in interaction types plus those of the
// configured catalog file, if any.
func openInteractions(cfg config.Config) (*registry.Registry, error) {
	reg := registry.Default()
	if cfg.Editor.Interactions == "" {
		return reg, nil
	}
	f, err := os.Open(cfg.Editor.Interactions)
	if err != nil {
		return nil, fmt.Errorf("failed to open interaction catalog: %w", err)
	}
	defer f.Close()
	if err := reg.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Editor.Interactions, err)
	}
	return reg, nil
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	interactions, err := openInteractions(cfg)
	if err != nil {
		return nil, err
	}
	source, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	b := &backends{source: source, interactions: interactions}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		b.store = memory.NewStore()
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		b.store = store
		b.closers = append(b.closers, store)
	case config.BackendRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
		)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.store = store
		b.locker = redis.NewLocker(store.Client(), cfg.Redis.Prefix)
		b.closers = append(b.closers, store)
	default:
		b.store = file.New(cfg.Store.Dir)
	}

	logger.Debug("backends ready", "source", cfg.Source.Kind, "store", cfg.Store.Backend)
	return b, nil
}

// newManager wires a session manager over the configured backends.
func newManager(cfg config.Config, b *backends, logger *slog.Logger, metrics *observability.Metrics) *session.Manager {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithEditorOptions(
			lattice.WithDeletePolicy(cfg.DeletePolicy()),
			lattice.WithInteractions(b.interactions),
		),
	}
	if b.locker != nil {
		opts = append(opts, session.WithLocker(b.locker), session.WithLockTTL(cfg.Redis.LockTTL))
	}
	if metrics != nil {
		opts = append(opts, session.WithMetrics(metrics))
	}
	return session.NewManager(b.source, b.store, opts...)
}
