package cachesvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/trezcool/elimu/core"
)

type redisCache struct {
	client *goredis.Client
	prefix string
}

var _ core.Cache = (*redisCache)(nil)

// NewRedisClient connects to the configured redis server and pings it.
func NewRedisClient(ctx context.Context, conf *core.Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        conf.Redis.Address,
		Password:    conf.Redis.Password,
		DB:          conf.Redis.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func NewRedisCache(client *goredis.Client, conf *core.Config) *redisCache {
	return &redisCache{client: client, prefix: conf.AppName + ":"}
}

func (c redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, core.ErrCacheMiss
		}
		return nil, errors.Wrap(err, "getting cache entry")
	}
	return val, nil
}

func (c redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, val, ttl).Err(); err != nil {
		return errors.Wrap(err, "setting cache entry")
	}
	return nil
}

func (c redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		return errors.Wrap(err, "deleting cache entries")
	}
	return nil
}
