package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-roster/pkg/config"
)

// NewRedisClient connects to Redis, retrying the initial ping with
// exponential backoff.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
	notify := func(err error, next time.Duration) {
		log.Printf("⏳ Redis not ready (%v), retrying in %s", err, next)
	}

	if err := backoff.RetryNotify(ping, bo, notify); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.GetRedisAddr(), err)
	}

	log.Println("✅ Redis connected successfully")
	return client, nil
}
