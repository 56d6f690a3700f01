package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"accounts-backend/internal/common/config"
	"accounts-backend/internal/common/logger"
)

// Open creates a Redis client and pings it to validate the connection.
func Open(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info().Str("addr", cfg.RedisAddr()).Msg("Connected to Redis")

	return client, nil
}
