package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig configures the client behind the job queues.
type RedisConfig struct {
	URL         string
	PoolSize    int
	DialTimeout time.Duration
}

func redisOptions(cfg RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	// Health checks and dispatch pass deadline-bound contexts.
	opts.ContextTimeoutEnabled = true
	return opts, nil
}

// NewRedis connects the job-queue client and fails fast when Redis is not
// reachable within the dial timeout.
func NewRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	wait := opts.DialTimeout
	if wait <= 0 {
		wait = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Int("pool_size", opts.PoolSize).
		Msg("redis connected")
	return rdb, nil
}
