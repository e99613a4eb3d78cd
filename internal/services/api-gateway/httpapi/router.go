package httpapi

import (
	"net/http"

	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/api-gateway/auth"
	"github.com/NordCoder/Restora/internal/services/api-gateway/events"
	"github.com/NordCoder/Restora/internal/services/api-gateway/notifications"
	"github.com/NordCoder/Restora/internal/services/api-gateway/realtime"
	"github.com/NordCoder/Restora/internal/services/api-gateway/settings"
	"github.com/NordCoder/Restora/internal/services/api-gateway/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controllers struct {
	Events        *events.Controller
	Notifications *notifications.Controller
	Settings      *settings.Controller
	Users         *users.Controller
	Realtime      *realtime.Controller
}

type Options struct {
	JWTSecret []byte
	Health    map[string]obs.HealthCheck
}

// NewRouter builds the gin engine. Registration and event intake are open
// to anonymous callers; everything else needs an identity.
func NewRouter(log *zap.Logger, ctl Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), obs.GinMiddleware(log), auth.Identity(opts.JWTSecret))

	health := obs.HealthHandler(opts.Health)
	r.GET("/healthz", gin.WrapH(health))

	public := r.Group("/v1")
	if ctl.Events != nil {
		ctl.Events.Register(public)
	}

	private := r.Group("/v1", auth.Required())
	me := private.Group("/me")
	targets := private.Group("/targets")

	if ctl.Users != nil {
		ctl.Users.Register(public, targets)
	}
	if ctl.Notifications != nil {
		ctl.Notifications.Register(me, targets)
	}
	if ctl.Settings != nil {
		ctl.Settings.Register(me)
	}
	if ctl.Realtime != nil {
		ctl.Realtime.Register(private)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// Handler wraps the engine with request tracing.
func Handler(r *gin.Engine) http.Handler {
	return obs.HTTPHandler(r, "api-gateway")
}
