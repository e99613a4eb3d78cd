package main

import (
	"net/http"
	"time"

	config "github.com/NordCoder/Restora/internal/config/api-gateway"
	"github.com/NordCoder/Restora/internal/domain/notification"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/repository/store"
	"github.com/NordCoder/Restora/internal/services/api-gateway/events"
	"github.com/NordCoder/Restora/internal/services/api-gateway/httpapi"
	"github.com/NordCoder/Restora/internal/services/api-gateway/notifications"
	"github.com/NordCoder/Restora/internal/services/api-gateway/realtime"
	"github.com/NordCoder/Restora/internal/services/api-gateway/settings"
	"github.com/NordCoder/Restora/internal/services/api-gateway/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, st *store.Store, sub notification.Subscriber, health map[string]obs.HealthCheck) *http.Server {
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := realtime.NewHub(logger, sub, cfg.Realtime.Config)
	router := httpapi.NewRouter(logger, httpapi.Controllers{
		Events:        events.NewController(logger, events.NewUsecase(st.Outbox, st.Tx, notification.SystemClock{})),
		Notifications: notifications.NewController(logger, notifications.NewUsecase(st.Notifications)),
		Settings:      settings.NewController(logger, settings.NewUsecase(st.Settings)),
		Users:         users.NewController(logger, users.NewUsecase(st.Users, st.Followers, st.Settings, st.Tx)),
		Realtime:      realtime.NewController(logger, hub, cfg.Realtime.Origins),
	}, httpapi.Options{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		Health:    health,
	})

	// WriteTimeout is left unset: websocket connections outlive any
	// request deadline.
	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           httpapi.Handler(router),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
