package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// attemptScript counts one attempt and reports 1 while the window total is
// within the limit. The window starts at the first attempt.
var attemptScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local current = redis.call('INCR', key)
if current == 1 then
	redis.call('PEXPIRE', key, window)
end

if current > limit then
	return 0
end

return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "setnx")
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, key).Err(), "del")
}

func (r *RedisAdapter) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return errors.Wrap(r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(), "set")
}

func (r *RedisAdapter) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, errors.Wrap(err, "exists")
	}
	return n > 0, nil
}

func (r *RedisAdapter) AllowAttempt(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	result, err := attemptScript.Run(ctx, r.client, []string{key}, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, errors.Wrap(err, "attempt script")
	}

	return result == 1, nil
}

func (r *RedisAdapter) ResetAttempts(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, key).Err(), "del")
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
