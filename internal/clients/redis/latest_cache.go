package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/utils"
)

// LatestCache memoizes resolved latest-component identifiers keyed by the
// full query tuple. Entries expire on a TTL; ingestion does not invalidate
// them, so the TTL bounds staleness.
type LatestCache interface {
	Get(ctx context.Context, key string) (uuid.UUID, bool, error)
	Set(ctx context.Context, key string, id uuid.UUID) error
	Close() error
}

type latestCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewLatestCache(log *logger.Logger) (LatestCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("LATEST_CACHE_TTL_SECONDS", 300, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &latestCache{
		log: log.With("service", "LatestCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *latestCache) Get(ctx context.Context, key string) (uuid.UUID, bool, error) {
	if c == nil || c.rdb == nil {
		return uuid.Nil, false, fmt.Errorf("latest cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		// Stale or foreign value under our key; treat as a miss.
		c.log.Warn("Discarding unparseable cache entry", "key", key, "error", err)
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (c *latestCache) Set(ctx context.Context, key string, id uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("latest cache not initialized")
	}
	return c.rdb.Set(ctx, key, id.String(), c.ttl).Err()
}

func (c *latestCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
