package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/katalog/internal/auth"
	"github.com/erazemk/katalog/internal/catalog"
	"github.com/erazemk/katalog/internal/config"
	"github.com/erazemk/katalog/internal/imaging"
	"github.com/erazemk/katalog/internal/store"
	"github.com/erazemk/katalog/internal/store/mongostore"
	"github.com/erazemk/katalog/internal/store/sqlitestore"
)

// openStore connects to the configured backend.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, fmt.Errorf("opening MongoDB: %w", err)
		}
		slog.Info("database ready", "backend", cfg.Backend, "db", cfg.MongoDBName)
		return st, nil
	default:
		st, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite: %w", err)
		}
		slog.Info("database ready", "backend", cfg.Backend, "path", cfg.SQLitePath)
		return st, nil
	}
}

// newService builds the catalog service on st. The returned cleanup closes
// the Redis revocation list when one is used.
func newService(ctx context.Context, cfg config.Config, st store.Store) (*catalog.Service, func(), error) {
	// Load JWT secret from the store (generated on first run).
	secret, err := st.JWTSecret(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("getting JWT secret: %w", err)
	}

	cleanup := func() {}
	opts := catalog.Options{
		StoreTimeout: cfg.StoreTimeout,
		JWTSecret:    secret,
		Images: imaging.Processor{
			MaxDimension: cfg.Image.MaxDimension,
			Quality:      cfg.Image.Quality,
			MaxBytes:     cfg.Image.MaxBytes,
		},
	}

	if cfg.RedisURL != "" {
		rev, err := auth.NewRedisRevocations(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
		}
		opts.Revocations = rev
		cleanup = func() { rev.Close() }
		slog.Info("token revocations in Redis")
	}

	svc, err := catalog.New(st, opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
