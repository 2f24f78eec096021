package kvstore

import (
	"context"
	"time"
)

type redisClient interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Key(parts ...string) string
}

// Redis stores values under the client's key namespace with a sliding TTL.
type Redis struct {
	client redisClient
	ttl    time.Duration
}

func NewRedis(client redisClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, key string) (string, bool, error) {
	return r.client.Lookup(ctx, r.client.Key(key))
}

func (r *Redis) Save(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.client.Key(key), value, r.ttl)
}
