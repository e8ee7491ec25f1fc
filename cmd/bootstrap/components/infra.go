package components

import (
	"context"
	"log/slog"

	"studio-booking/internal/infra/cache"
	"studio-booking/internal/infra/events"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/jwt"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"go.uber.org/fx"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		clock.NewRealClock,
		NewPlanCache,
		NewEventPublisher,
		NewJWTService,
	),
)

// NewPlanCache uses Redis when REDIS_ADDR is set and a process-local cache
// otherwise.
func NewPlanCache(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) (queries.PlanCache, error) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryPlanCache(cfg.Redis.PlanTTL, clk), nil
	}

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})
	logger.Info("day plan cache backed by redis", "addr", cfg.Redis.Addr)
	return cache.NewRedisPlanCache(client, cfg.Redis.PlanTTL, logger), nil
}

// NewEventPublisher publishes to Kafka when KAFKA_BROKERS is set and to the
// log otherwise.
func NewEventPublisher(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) commands.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogPublisher(logger)
	}

	p := events.NewKafkaPublisher(cfg.Kafka, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return p.Close()
		},
	})
	return p
}

func NewJWTService(cfg config.Config) *jwt.Service {
	return jwt.NewService(cfg.JWT.Secret)
}
