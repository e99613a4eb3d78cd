package realtime

import (
	"net/http"

	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/api-gateway/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Controller struct {
	log      *zap.Logger
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewController accepts any origin when origins is empty.
func NewController(log *zap.Logger, hub *Hub, origins []string) *Controller {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Controller{
		log: obs.Component(log, "api.realtime"),
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

func (ctl *Controller) Register(g *gin.RouterGroup) {
	g.GET("/ws", ctl.serve)
}

func (ctl *Controller) serve(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		ctl.log.Debug("websocket upgrade", zap.Error(err))
		return
	}
	log := obs.WithTrace(c.Request.Context(), ctl.log).With(zap.Int64("uid", uid))
	log.Debug("websocket open")
	if err := ctl.hub.Serve(c.Request.Context(), uid, ws); err != nil {
		log.Error("websocket serve", zap.Error(err))
		return
	}
	log.Debug("websocket closed")
}
