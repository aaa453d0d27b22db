package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	blacklistPrefix   = "blacklist:"
	idempotencyPrefix = "idempotency:"
	pendingMarker     = "pending"
)

type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	return exists == 1, err
}

// Blacklist keeps the JTI only as long as the token could still verify.
func (r *RedisRepository) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, blacklistPrefix+jti, "true", ttl).Err()
}

func (r *RedisRepository) Claim(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	ok, err := r.rdb.SetNX(ctx, idempotencyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}

	val, err := r.rdb.Get(ctx, idempotencyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; let the caller retry.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if val == pendingMarker {
		val = ""
	}
	return val, false, nil
}

func (r *RedisRepository) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, idempotencyPrefix+key, value, ttl).Err()
}

func (r *RedisRepository) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, idempotencyPrefix+key).Err()
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
