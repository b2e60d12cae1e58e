package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/lib/platforms/tipranks"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tipranks:session:"

// Redis shares sessions between processes, expiry is left to redis.
type Redis struct {
	rdb  redis.UniversalClient
	time chrono.API
}

func OpenRedis(ctx context.Context, redisUrl string, clock chrono.API) (Redis, error) {
	opts, err := redis.ParseURL(redisUrl)
	if err != nil {
		return Redis{}, fmt.Errorf("redis session store: parse url: %w", err)
	}
	store := NewRedis(redis.NewClient(opts), clock)

	err = store.rdb.Ping(ctx).Err()
	if err != nil {
		store.Close()
		return Redis{}, fmt.Errorf("redis session store: ping: %w", err)
	}
	return store, nil
}

func NewRedis(rdb redis.UniversalClient, clock chrono.API) Redis {
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}
	return Redis{rdb: rdb, time: clock}
}

func (r Redis) Get(ctx context.Context, key string) (tipranks.Session, bool, error) {
	cookie, err := r.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return tipranks.Session{}, false, nil
	}
	if err != nil {
		return tipranks.Session{}, false, err
	}
	return tipranks.Session{Cookie: cookie}, true, nil
}

func (r Redis) Put(ctx context.Context, key string, session tipranks.Session, ttl time.Duration) error {
	ttl, ok := BoundTTL(r.time.Now(), session, ttl)
	if !ok {
		return r.Delete(ctx, key)
	}
	// a negative expiration means KEEPTTL to go-redis
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, redisKeyPrefix+key, session.Cookie, ttl).Err()
}

func (r Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

func (r Redis) Close() error {
	return r.rdb.Close()
}
