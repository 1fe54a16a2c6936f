package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/stocktake-io/stocktake/internal/config"
)

// New builds the redis client used as a read-through cache for
// asset-by-code lookups. Callers treat a nil client as "caching off".
func New(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
}
