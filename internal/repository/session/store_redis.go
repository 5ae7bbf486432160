package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Save(ctx context.Context, userID uint64, token string) error {
	if err := r.client.Set(ctx, tokenKey(userID), token, UserTokenTTL).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := r.client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrStoreUnavailable
	}
	return token, nil
}

func (r *RedisStore) Extend(ctx context.Context, userID uint64) error {
	ok, err := r.client.Expire(ctx, tokenKey(userID), UserTokenTTL).Result()
	if err != nil {
		return ErrStoreUnavailable
	}
	if !ok {
		return ErrTokenNotFound
	}
	return nil
}

// Delete 幂等
func (r *RedisStore) Delete(ctx context.Context, userID uint64) error {
	if err := r.client.Del(ctx, tokenKey(userID)).Err(); err != nil {
		return ErrStoreUnavailable
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
