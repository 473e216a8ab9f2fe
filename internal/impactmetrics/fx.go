package impactmetrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const pushInterval = 5 * time.Minute

var Module = fx.Module("impact.metrics",
	fx.Provide(NewPusher),
	fx.Invoke(Register),
)

var registerOnce sync.Once

// Register installs the push recorder and starts the periodic push loop when a pusher is configured.
func Register(lc fx.Lifecycle, pusher Pusher, logger *zap.Logger) {
	if pusher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("impact.metrics")

	registerOnce.Do(func() {
		registry := prometheus.NewRegistry()
		setRecorder(&recorder{metrics: newMetrics(registry)})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				logger.Info("starting impact metrics push loop", zap.Duration("interval", pushInterval))
				go func() {
					defer close(done)
					ticker := time.NewTicker(pushInterval)
					defer ticker.Stop()
					for {
						select {
						case <-ticker.C:
							pushOnce(ctx, pusher, registry, logger)
						case <-ctx.Done():
							return
						}
					}
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
				case <-stopCtx.Done():
				}
				// Flush the last values so short-lived workers still report.
				pushOnce(stopCtx, pusher, registry, logger)
				return nil
			},
		})
	})
}

func pushOnce(ctx context.Context, pusher Pusher, registry prometheus.Gatherer, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := pusher.Push(ctx, registry); err != nil {
		logger.Warn("impact metrics push failed", zap.Error(err))
	}
}
