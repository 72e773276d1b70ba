package kvstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/turmas-api/pkg/cache"
	"github.com/noah-isme/turmas-api/pkg/config"
	"github.com/noah-isme/turmas-api/pkg/database"
)

// Open builds the backend selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Store.Driver {
	case "", config.StoreMemory:
		logger.Warn("using in-memory document store, data is lost on restart")
		return NewMemory(), nil
	case config.StoreFile:
		store, err := NewFile(cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
		logger.Info("file document store ready", zap.String("dir", cfg.Store.FileDir))
		return store, nil
	case config.StoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis document store ready", zap.String("host", cfg.Redis.Host), zap.Int("db", cfg.Redis.DB))
		return NewRedis(client, cfg.Store.Namespace), nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("postgres document store ready", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
