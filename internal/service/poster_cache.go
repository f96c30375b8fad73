package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const posterCacheTTL = 24 * time.Hour

// CachedPosterFinder memoizes poster lookups in Redis. Misses are not
// cached so a later TMDB hit is picked up.
type CachedPosterFinder struct {
	next  PosterFinder
	redis *redis.Client
}

// NewCachedPosterFinder wraps next. A nil client disables caching.
func NewCachedPosterFinder(next PosterFinder, rdb *redis.Client) *CachedPosterFinder {
	return &CachedPosterFinder{next: next, redis: rdb}
}

// SearchPoster implements PosterFinder.
func (f *CachedPosterFinder) SearchPoster(ctx context.Context, title, year string) (string, error) {
	cacheKey := fmt.Sprintf("poster:%s:%s", strings.ToLower(strings.TrimSpace(title)), year)

	if cached, err := f.getFromCache(ctx, cacheKey); err == nil {
		slog.Debug("cache hit", "key", cacheKey)
		return cached, nil
	}

	poster, err := f.next.SearchPoster(ctx, title, year)
	if err != nil {
		return "", err
	}

	f.setCache(ctx, cacheKey, poster)
	return poster, nil
}

// ---- Redis Helpers ----

func (f *CachedPosterFinder) getFromCache(ctx context.Context, key string) (string, error) {
	if f.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return f.redis.Get(ctx, key).Result()
}

func (f *CachedPosterFinder) setCache(ctx context.Context, key, value string) {
	if f.redis == nil {
		return
	}
	if err := f.redis.Set(ctx, key, value, posterCacheTTL).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
