package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the document registry store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisClient wraps the go-redis client with pooling defaults tuned for a
// single-process registry workload.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a pooled Redis client. It does not dial; call
// Ping to verify the server is reachable.
func NewRedisClient(cfg RedisConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisClient{client: client}
}

// Ping checks if Redis is alive.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Client returns the underlying go-redis client for repository use.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

// Close releases all pooled connections.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
