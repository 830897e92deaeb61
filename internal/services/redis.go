package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupePrefix = "assessment:dedupe:"

// RedisGuard implements Guard with SET NX and a TTL, so every replica shares one window
type RedisGuard struct {
	BaseProvider
	client *redis.Client
	window time.Duration
}

// NewRedisGuard connects to Redis and returns a guard holding keys for window
func NewRedisGuard(ctx context.Context, address, password string, db int, window time.Duration) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis dedupe guard ready", "address", address, "window", window.String())

	return &RedisGuard{
		BaseProvider: BaseProvider{serviceType: "redis"},
		client:       client,
		window:       window,
	}, nil
}

// Claim reserves key for the guard window
func (g *RedisGuard) Claim(ctx context.Context, key string) error {
	ok, err := g.client.SetNX(ctx, dedupeKey(key), time.Now().UTC().Format(time.RFC3339), g.window).Result()
	if err != nil {
		return fmt.Errorf("failed to claim submission: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Release deletes the claim on key
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, dedupeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release submission: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (g *RedisGuard) HealthCheck(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (g *RedisGuard) Close() error {
	return g.client.Close()
}

func dedupeKey(fingerprint string) string {
	return dedupePrefix + fingerprint
}
