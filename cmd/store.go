package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricewatch-cli/internal/pipeline"
	"github.com/sells-group/pricewatch-cli/internal/store"
)

// initStore opens the configured persistence backend. Callers own Close.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		dsn := cfg.Store.Path
		if dsn == "" {
			dsn = "pricewatch.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	default:
		return nil, pipeline.ConfigError(eris.Errorf("unsupported store driver %q", cfg.Store.Driver), "init store")
	}
}
