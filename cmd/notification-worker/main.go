package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	config "github.com/NordCoder/Restora/internal/config/notification-worker"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/repository/kafka"
	"github.com/NordCoder/Restora/internal/repository/redis"
	"github.com/NordCoder/Restora/internal/repository/store"
	fanout "github.com/NordCoder/Restora/internal/services/notification"
	worker "github.com/NordCoder/Restora/internal/services/notification-worker"
	"go.uber.org/zap"
)

func wire(cfg *config.Config, st *store.Store, bus notification.Broadcaster, cons *kafka.Consumer, l *zap.Logger) (*worker.Controller, *worker.Retention) {
	clock := notification.SystemClock{}
	eval := fanout.NewEvaluator(st.Settings, st.Jobs)
	dispatcher := fanout.NewDispatcher(l, eval, st.Users, st.Followers, st.Notifications, st.Tx, bus, clock, cfg.Notifications)

	return worker.NewController(l, cons, dispatcher), worker.NewRetention(l, st.Notifications, clock, cfg.Retention)
}

func main() {
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// otel
	otelCloser, err := obs.SetupOTel(root, &cfg.OTEL)
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// storage
	st, err := store.Open(root, cfg.Storage, l)
	if err != nil {
		l.Fatal("storage open", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	// redis
	rdb, err := redis.NewClient(root, cfg.Redis)
	if err != nil {
		l.Fatal("redis connect", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()
	bus := redis.NewBus(rdb, cfg.Redis.ChannelPrefix, l)

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, map[string]obs.HealthCheck{
		"storage": st.Ping,
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, l)

	// kafka
	cons := kafka.BootstrapConsumer(root, cfg.Kafka.AsConsumerConfig(), l).WithLogger(l)
	defer func() { _ = cons.Close() }()

	// wiring
	ctrl, retention := wire(cfg, st, bus, cons, l)

	// start
	errCh := make(chan error, 2)
	go func() { errCh <- ctrl.Run(root) }()
	go func() { errCh <- retention.Run(root) }()

	// loop
	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("worker stopped", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
