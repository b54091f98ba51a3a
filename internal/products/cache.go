package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/ferremas-api/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through Redis cache in front of a Store. Concurrent misses for the
// same key share one database read. Writes go straight to the store and drop the cache.
// The database stays the source of truth: every Redis failure falls back to the store.
type Cache struct {
	Store Store
	Redis redis.Cmdable

	group singleflight.Group
}

const fillTimeout = 10 * time.Second

func NewCache(store Store, rdb redis.Cmdable) *Cache {
	return &Cache{Store: store, Redis: rdb}
}

func (c *Cache) List(ctx context.Context) ([]Product, error) {
	return cached(ctx, c, redisx.KeyProductsAll, c.Store.List)
}

func (c *Cache) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	key := fmt.Sprintf(redisx.KeyProductsCategory, category)
	return cached(ctx, c, key, func(ctx context.Context) ([]Product, error) {
		return c.Store.ListByCategory(ctx, category)
	})
}

func (c *Cache) Get(ctx context.Context, id int64) (*Product, error) {
	key := fmt.Sprintf(redisx.KeyProduct, id)
	return cached(ctx, c, key, func(ctx context.Context) (*Product, error) { return c.Store.Get(ctx, id) })
}

func (c *Cache) Create(ctx context.Context, in CreateInput) (*Product, error) {
	p, err := c.Store.Create(ctx, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) Update(ctx context.Context, id int64, in UpdateInput) (*Product, error) {
	p, err := c.Store.Update(ctx, id, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

func (c *Cache) Delete(ctx context.Context, id int64) (*Product, error) {
	p, err := c.Store.Delete(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return p, err
}

// Invalidate drops every cached product entry. Stock changes made elsewhere call it too.
func (c *Cache) Invalidate(ctx context.Context) { c.invalidate(ctx) }

func (c *Cache) invalidate(ctx context.Context) {
	if c.Redis == nil {
		return
	}
	if err := redisx.DeletePattern(ctx, c.Redis, redisx.KeyProductsPattern); err != nil {
		log.Warn().Err(err).Msg("product cache invalidation failed")
	}
}

// cached fills a missing key once for all concurrent callers. The fill is detached from
// the caller that started it, so one cancelled request does not fail the others.
func cached[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.Redis == nil {
		return load(ctx)
	}
	if b, err := c.Redis.Get(ctx, key).Bytes(); err == nil {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			return v, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("product cache read failed")
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		v, err := load(fctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(v); err == nil {
			if err := c.Redis.Set(fctx, key, b, redisx.TTLProductCache).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("product cache write failed")
			}
		}
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
