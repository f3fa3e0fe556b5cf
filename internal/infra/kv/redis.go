package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/lanebid/drayage-portal/internal/infra/resilience"
	"github.com/lanebid/drayage-portal/internal/port"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/kv")

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis stores each document as one string value.
type Redis struct {
	client *redis.Client
	guard  *resilience.Guard
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions, cfg resilience.Config, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	logger.Info("redis connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return &Redis{
		client: client,
		guard:  resilience.NewGuard("redis", cfg),
		logger: logger,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Redis.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var value []byte
	err := r.guard.Do(ctx, "get", func(ctx context.Context) error {
		b, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return resilience.Permanent(port.ErrKeyNotFound)
		}
		if err != nil {
			return err
		}
		value = b
		return nil
	})
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			r.logger.Error("redis: get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}
	return value, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Redis.Put")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key), attribute.Int("kv.bytes", len(value)))

	err := r.guard.Do(ctx, "put", func(ctx context.Context) error {
		return r.client.Set(ctx, key, value, 0).Err()
	})
	if err != nil {
		r.logger.Error("redis: put failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.guard.Do(ctx, "delete", func(ctx context.Context) error {
		return r.client.Del(ctx, key).Err()
	})
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
