package storage

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic cache key
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/samvad-hq/news-ingestor/internal/domain"
	"github.com/samvad-hq/news-ingestor/internal/logger"
)

const cacheKeyPrefix = "news:seen:"

// Cached fronts a Store with a redis set of known dedup keys. Redis is an
// accelerator only: any redis failure falls through to the inner store.
type Cached struct {
	inner Store
	rdb   redis.UniversalClient
	ttl   time.Duration
	log   logger.Logger
}

// NewCached wraps inner. ttl bounds how long a positive hit is remembered.
func NewCached(inner Store, rdb redis.UniversalClient, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{inner: inner, rdb: rdb, ttl: ttl, log: logger.Ensure(log)}
}

// NewRedisClient builds the client used by Cached.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (c *Cached) Exists(ctx context.Context, title, source string) (bool, error) {
	key := cacheKey(title, source)
	n, err := c.rdb.Exists(ctx, key).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		c.warn("cache lookup failed", err)
	}

	ok, err := c.inner.Exists(ctx, title, source)
	if err != nil {
		return false, err
	}
	if ok {
		c.remember(ctx, key)
	}
	return ok, nil
}

func (c *Cached) Save(ctx context.Context, a *domain.Article) error {
	err := c.inner.Save(ctx, a)
	if err == nil || errors.Is(err, ErrDuplicate) {
		c.remember(ctx, cacheKey(a.Title, a.Source))
	}
	return err
}

// DeleteOlderThan deletes from the inner store, then drops every cached key
// since the cache cannot tell which ones expired.
func (c *Cached) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := c.inner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return n, err
	}
	if n > 0 {
		if ferr := c.flush(ctx); ferr != nil {
			c.warn("cache flush failed", ferr)
		}
	}
	return n, nil
}

func (c *Cached) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return c.inner.CountSince(ctx, since)
}

func (c *Cached) DistinctSources(ctx context.Context) ([]string, error) {
	return c.inner.DistinctSources(ctx)
}

func (c *Cached) Close() error {
	return errors.Join(c.inner.Close(), c.rdb.Close())
}

func (c *Cached) remember(ctx context.Context, key string) {
	if err := c.rdb.Set(ctx, key, 1, c.ttl).Err(); err != nil {
		c.warn("cache write failed", err)
	}
}

func (c *Cached) flush(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (c *Cached) warn(msg string, err error) {
	c.log.WarnObj(msg, "cache_error", map[string]any{"error": err.Error()})
}

func cacheKey(title, source string) string {
	sum := sha1.Sum(dedupKey(title, source))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
