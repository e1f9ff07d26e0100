package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds one connection for rate-limit bookkeeping and a separate
// one for pub/sub, since a subscribed connection cannot issue other commands.
type RedisClients struct {
	Limiter *redis.Client
	PubSub  *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	limiterOpt := *opt
	limiterOpt.DialTimeout = 2 * time.Second
	limiterOpt.ReadTimeout = time.Second
	limiterOpt.WriteTimeout = time.Second
	limiterClient := redis.NewClient(&limiterOpt)
	if err := limiterClient.Ping(ctx).Err(); err != nil {
		limiterClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (limiter): %w", err)
	}

	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		limiterClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Limiter: limiterClient,
		PubSub:  pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Limiter.Close()
	r.PubSub.Close()
}
