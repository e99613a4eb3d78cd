package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Restora/internal/config/api-gateway"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/obs/retry"
	"github.com/NordCoder/Restora/internal/outbox"
	"github.com/NordCoder/Restora/internal/repository/kafka"
	"github.com/NordCoder/Restora/internal/repository/redis"
	"github.com/NordCoder/Restora/internal/repository/store"
	"go.uber.org/zap"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway",
		zap.String("env", cfg.App.Env),
		zap.String("ver", cfg.App.Version),
		zap.String("storage", cfg.Storage.Driver),
	)

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	st, err := store.Open(rootCtx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("storage open", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	rdb, err := redis.NewClient(rootCtx, cfg.Redis)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()
	bus := redis.NewBus(rdb, cfg.Redis.ChannelPrefix, logger)

	prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
	defer func() { _ = prod.Close() }()

	// relay: outbox -> kafka
	dispatch := outbox.MakeGlobalOutboxHandler(kafka.NewFanoutEventsKafka(prod), retry.OutboxPolicy(logger))
	relay := outbox.NewOutboxRunner(logger, st.Outbox, dispatch, cfg.Outbox)
	relayCtx, stopRelay := context.WithCancel(rootCtx)
	relay.Start(relayCtx)

	health := map[string]obs.HealthCheck{
		"storage": st.Ping,
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, health, logger)

	httpSrv := buildHTTPServer(cfg, logger, st, bus, health)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	stopRelay()
	relay.Wait()
	_ = ms.Shutdown(shCtx)
	logger.Info("bye")
}
