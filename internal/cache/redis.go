package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
)

// Redis keeps records in redis so several processes can share one cache.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	codec  Codec[T]
}

func NewRedis[T any](client *redis.Client, prefix string, kind models.Kind, ttl time.Duration, codec Codec[T]) *Redis[T] {
	return &Redis[T]{
		client: client,
		prefix: fmt.Sprintf("%s:%s", prefix, kind),
		ttl:    ttl,
		codec:  codec,
	}
}

func (r *Redis[T]) key(id snowflake.ID) string {
	return fmt.Sprintf("%s:%d", r.prefix, id)
}

func (r *Redis[T]) Get(ctx context.Context, id snowflake.ID) (*T, bool, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	value, err := r.codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached record %s: %w", r.key(id), err)
	}
	return value, true, nil
}

func (r *Redis[T]) Put(ctx context.Context, id snowflake.ID, value *T) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(id), data, r.ttl).Err()
}

func (r *Redis[T]) Remove(ctx context.Context, id snowflake.ID) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *Redis[T]) Len(ctx context.Context) (int, error) {
	var count int
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}
