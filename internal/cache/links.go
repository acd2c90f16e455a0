// Package cache puts a redis cache-aside layer in front of active link
// lookups. Redis failures are logged and fall through to the wrapped storage.
package cache

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "link:"

type LinkCache struct {
	repository.Storage
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func NewLinkCache(storage repository.Storage, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *LinkCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LinkCache{
		Storage: storage,
		rdb:     rdb,
		ttl:     ttl,
		log:     log,
	}
}

func (c *LinkCache) FindActiveLinkByCode(ctx context.Context, code string) (*domain.Link, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+code).Bytes()
	switch {
	case err == nil:
		var link domain.Link
		if err := json.Unmarshal(data, &link); err == nil {
			return &link, nil
		}
		c.log.Warn("dropping undecodable cached link", zap.String("short_code", code))
		c.Invalidate(ctx, code)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("link cache read failed", zap.String("short_code", code), zap.Error(err))
	}

	link, err := c.Storage.FindActiveLinkByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedLink(link)); err == nil {
		if err := c.rdb.Set(ctx, keyPrefix+code, data, c.ttl).Err(); err != nil {
			c.log.Warn("link cache write failed", zap.String("short_code", code), zap.Error(err))
		}
	}
	return link, nil
}

func (c *LinkCache) ClaimUnownedLink(ctx context.Context, code string, ownerID int64) error {
	if err := c.Storage.ClaimUnownedLink(ctx, code, ownerID); err != nil {
		return err
	}
	c.Invalidate(ctx, code)
	return nil
}

func (c *LinkCache) DeactivateLink(ctx context.Context, code string, ownerID int64) error {
	if err := c.Storage.DeactivateLink(ctx, code, ownerID); err != nil {
		return err
	}
	c.Invalidate(ctx, code)
	return nil
}

func (c *LinkCache) Invalidate(ctx context.Context, code string) {
	if err := c.rdb.Del(ctx, keyPrefix+code).Err(); err != nil {
		c.log.Warn("link cache invalidation failed", zap.String("short_code", code), zap.Error(err))
	}
}

// cachedLink drops the QR data URL; redirects never read it.
func cachedLink(l *domain.Link) *domain.Link {
	out := *l
	out.QRCodeURL = nil
	return &out
}
