package authentication

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenRegistry keeps the uuids of issued tokens; a token that is not
// registered (logged out, expired, revoked) is rejected even if its signature is valid
type TokenRegistry interface {
	Register(ctx context.Context, tokenUUID string, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, tokenUUID string) (string, error)
	Revoke(ctx context.Context, tokenUUIDs ...string) (int64, error)
	// UserTokens lists the registered uuids of a user starting with prefix
	UserTokens(ctx context.Context, prefix string, userID string) ([]string, error)
}

// RedisRegistry stores uuid -> userID in its own redis DB
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry uses an already connected client (see database.OpenRedis)
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Register stores the uuid until the token expires
func (r *RedisRegistry) Register(ctx context.Context, tokenUUID string, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, tokenUUID, userID, ttl).Err()
}

// Lookup returns the owner of a registered token
func (r *RedisRegistry) Lookup(ctx context.Context, tokenUUID string) (string, error) {
	userID, err := r.client.Get(ctx, tokenUUID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrUnauthorized
	}
	return userID, err
}

// Revoke removes tokens and returns how many existed
func (r *RedisRegistry) Revoke(ctx context.Context, tokenUUIDs ...string) (int64, error) {
	if len(tokenUUIDs) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, tokenUUIDs...).Result()
}

// UserTokens scans the keys of a token type. Redis can only search keys, so
// the values (user ids) are compared client side.
func (r *RedisRegistry) UserTokens(ctx context.Context, prefix string, userID string) ([]string, error) {
	var (
		cursor  uint64
		allKeys []string
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", 50).Result()
		if err != nil {
			return nil, err
		}
		allKeys = append(allKeys, keys...)

		cursor = next
		if cursor == 0 {
			break
		}
	}

	var usrKeys []string
	for _, k := range allKeys {
		val, err := r.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired meanwhile
		}
		if err != nil {
			return nil, err
		}
		if val == userID {
			usrKeys = append(usrKeys, k)
		}
	}

	return usrKeys, nil
}
