package cache

import (
	"log/slog"
	"time"

	"github.com/AashishShrestha007/DismineSMP-v1/internal/config"
)

// New selects a cache backend from the application configuration:
// Redis when a URL is configured, in-memory otherwise. A failed Redis
// connection falls back to memory with a warning rather than refusing
// to start.
func New(cfg *config.Config) Cacher {
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	if cfg.UseRedisCache() {
		rc, err := NewRedisCache(RedisCacheOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.CachePrefix,
			DefaultTTL: ttl,
		})
		if err == nil {
			slog.Info("cache backend: redis", "prefix", cfg.CachePrefix)
			return rc
		}
		slog.Warn("redis cache unavailable, using memory cache", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
}
