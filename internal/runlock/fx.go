package runlock

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/seatwise/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("runlock",
	fx.Provide(NewLocker),
)

// NewLocker picks the redis locker when REDIS_ADDR is set, otherwise an in-process one.
func NewLocker(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Locker {
	if !cfg.Redis.Enabled() {
		log.Info("run lock using in-process mutex")
		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed, run lock calls will error until it recovers", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return client.Close()
		},
	})
	log.Info("run lock using redis", zap.String("addr", cfg.Redis.Addr))
	return NewRedisLocker(client, DefaultTTL, log)
}
