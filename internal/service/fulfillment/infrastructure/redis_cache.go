package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/seanhasenstein/macaport-fulfillment/internal/pkg/redis"
	"github.com/seanhasenstein/macaport-fulfillment/internal/service/fulfillment/domain"
)

const storeKeyPrefix = "dashboard:store:"

// RedisStoreCache implements port.StoreCache on Redis. Snapshots are whole
// Store documents serialized as JSON, keyed by store id, with a TTL as a
// backstop against entries that were never invalidated.
type RedisStoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStoreCache creates the cache adapter. ttl 0 disables the backstop
// expiry.
func NewRedisStoreCache(client *redis.Client, ttl time.Duration) *RedisStoreCache {
	return &RedisStoreCache{client: client, ttl: ttl}
}

func (c *RedisStoreCache) Get(ctx context.Context, storeID string) (*domain.Store, error) {
	raw, err := c.client.Get(ctx, storeKeyPrefix+storeID)
	if err != nil {
		return nil, errors.Wrap(err, "cache get")
	}
	if raw == "" {
		return nil, nil
	}
	var store domain.Store
	if err := json.Unmarshal([]byte(raw), &store); err != nil {
		return nil, errors.Wrap(err, "decode cached store")
	}
	return &store, nil
}

func (c *RedisStoreCache) Set(ctx context.Context, store *domain.Store) error {
	raw, err := json.Marshal(store)
	if err != nil {
		return errors.Wrap(err, "encode store")
	}
	return errors.Wrap(c.client.Set(ctx, storeKeyPrefix+store.ID, string(raw), c.ttl), "cache set")
}

func (c *RedisStoreCache) Invalidate(ctx context.Context, storeID string) error {
	return errors.Wrap(c.client.Del(ctx, storeKeyPrefix+storeID), "cache invalidate")
}
