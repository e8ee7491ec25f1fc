package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
)

const planKeyPrefix = "dayplan:"

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errs.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}
	return client, nil
}

// RedisPlanCache stores day plans as JSON under dayplan:<studioType>:<date>:<version>.
// Keys carry the catalog version, so entries are never invalidated, only
// left to expire.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPlanCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPlanCache {
	return &RedisPlanCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPlanCache) Get(ctx context.Context, key queries.PlanKey) (*pricing.DayPlan, error) {
	data, err := c.client.Get(ctx, planKeyPrefix+key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "failed to read day plan")
	}

	var dto planDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		c.logger.Warn("dropping undecodable day plan", "key", key.String(), "error", err)
		return nil, nil
	}
	plan, err := planFromDTO(dto)
	if err != nil {
		c.logger.Warn("dropping invalid day plan", "key", key.String(), "error", err)
		return nil, nil
	}
	return plan, nil
}

func (c *RedisPlanCache) Set(ctx context.Context, key queries.PlanKey, plan *pricing.DayPlan) error {
	data, err := json.Marshal(planToDTO(plan))
	if err != nil {
		return errs.Wrap(err, "failed to encode day plan")
	}
	if err := c.client.Set(ctx, planKeyPrefix+key.String(), data, c.ttl).Err(); err != nil {
		return errs.Wrap(err, "failed to write day plan")
	}
	return nil
}
