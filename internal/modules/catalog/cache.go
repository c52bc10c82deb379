package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const notFoundMarker = "notfound"

// CachedRepository is a read-through redis cache over point lookups.
// Cached stock is a snapshot; checkout never reads through this type.
type CachedRepository struct {
	Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedRepository(inner Repository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	return &CachedRepository{Repository: inner, redis: rdb, ttl: ttl, logger: logger}
}

func idKey(ownerID, id uuid.UUID) string {
	return fmt.Sprintf("catalog:%s:product:%s", ownerID, id)
}

func barcodeKey(ownerID uuid.UUID, barcode string) string {
	return fmt.Sprintf("catalog:%s:barcode:%s", ownerID, barcode)
}

func (c *CachedRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Product, error) {
	key := idKey(ownerID, id)
	if p, hit, err := c.read(ctx, key); hit {
		return p, err
	}

	p, err := c.Repository.GetByID(ctx, ownerID, id)
	c.store(ctx, key, p, err)
	return p, err
}

// GetByBarcode caches the barcode → id mapping and reuses the product entry.
func (c *CachedRepository) GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*Product, error) {
	key := barcodeKey(ownerID, barcode)
	raw, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == notFoundMarker {
			return nil, ErrNotFound
		}
		if id, perr := uuid.Parse(raw); perr == nil {
			return c.GetByID(ctx, ownerID, id)
		}
		c.logger.Warn("corrupt barcode cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("redis error, reading from store", zap.Error(err))
	}

	p, err := c.Repository.GetByBarcode(ctx, ownerID, barcode)
	switch {
	case errors.Is(err, ErrNotFound):
		c.set(ctx, key, notFoundMarker, time.Minute)
	case err == nil:
		c.set(ctx, key, p.ID.String(), c.ttl)
		c.store(ctx, idKey(ownerID, p.ID), p, nil)
	}
	return p, err
}

func (c *CachedRepository) Create(ctx context.Context, p *Product) error {
	if err := c.Repository.Create(ctx, p); err != nil {
		return err
	}
	c.del(ctx, barcodeKey(p.OwnerID, p.Barcode))
	return nil
}

func (c *CachedRepository) Update(ctx context.Context, p *Product) error {
	old, err := c.Repository.GetByID(ctx, p.OwnerID, p.ID)
	if err == nil && old.Barcode != p.Barcode {
		c.del(ctx, barcodeKey(p.OwnerID, old.Barcode))
	}
	if err := c.Repository.Update(ctx, p); err != nil {
		return err
	}
	c.del(ctx, idKey(p.OwnerID, p.ID), barcodeKey(p.OwnerID, p.Barcode))
	return nil
}

func (c *CachedRepository) SetStock(ctx context.Context, ownerID, id uuid.UUID, qty int) error {
	if err := c.Repository.SetStock(ctx, ownerID, id, qty); err != nil {
		return err
	}
	c.Invalidate(ctx, ownerID, id)
	return nil
}

func (c *CachedRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	old, err := c.Repository.GetByID(ctx, ownerID, id)
	if err := c.Repository.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	c.Invalidate(ctx, ownerID, id)
	if err == nil {
		c.del(ctx, barcodeKey(ownerID, old.Barcode))
	}
	return nil
}

// Invalidate drops cached product entries, e.g. after a sale moved their stock.
func (c *CachedRepository) Invalidate(ctx context.Context, ownerID uuid.UUID, ids ...uuid.UUID) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, idKey(ownerID, id))
	}
	c.del(ctx, keys...)
}

// read reports hit=true when the answer came from redis.
func (c *CachedRepository) read(ctx context.Context, key string) (*Product, bool, error) {
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, true, ErrNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			c.logger.Warn("corrupt product cache entry", zap.String("key", key), zap.Error(err))
			return nil, false, nil
		}
		return &p, true, nil
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis error, reading from store", zap.Error(err))
	}
	return nil, false, nil
}

func (c *CachedRepository) store(ctx context.Context, key string, p *Product, err error) {
	if errors.Is(err, ErrNotFound) {
		c.set(ctx, key, notFoundMarker, time.Minute)
		return
	}
	if err != nil {
		return
	}
	data, merr := json.Marshal(p)
	if merr != nil {
		c.logger.Warn("marshal product for cache", zap.Error(merr))
		return
	}
	c.set(ctx, key, data, c.ttl)
}

func (c *CachedRepository) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedRepository) del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
	}
}
