package database

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// OpenRedis connects to one logical redis DB (the cache and the token registry use different ones)
func OpenRedis(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
