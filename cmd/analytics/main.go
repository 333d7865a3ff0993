package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/analytics"
	"github.com/ariefcatur/sellmate/internal/config"
	kafkax "github.com/ariefcatur/sellmate/internal/kafka"
	"github.com/ariefcatur/sellmate/internal/logger"
	"github.com/ariefcatur/sellmate/internal/orders"
	"github.com/ariefcatur/sellmate/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("config", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With(zap.String("service", cfg.ServiceName+"-analytics"))
	defer func() { _ = log.Sync() }()

	if len(cfg.KafkaBrokers) == 0 || cfg.RedisAddr == "" {
		log.Fatal("analytics consumer needs KAFKA_BROKERS and REDIS_ADDR")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	svc := &analytics.Service{
		Counters:    redisx.NewCounters(rdb),
		Dedup:       redisx.NewDedup(rdb),
		ServiceName: cfg.ServiceName + "-analytics",
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.AnalyticsGroup, orders.Topics, cfg.AnalyticsWorkers, log.Named("consumer"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("analytics consumer started",
			zap.String("group", cfg.AnalyticsGroup),
			zap.Strings("topics", orders.Topics),
			zap.Int("workers", cfg.AnalyticsWorkers))
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn("consumer did not stop in time")
	}
}
