package events

import (
	"net/http"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: obs.Component(log, "api.events"), uc: uc}
}

func (ctl *Controller) Register(g *gin.RouterGroup) {
	g.POST("/events", ctl.record)
}

func (ctl *Controller) record(c *gin.Context) {
	var ev event.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	key, err := ctl.uc.Record(c.Request.Context(), ev)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	obs.WithTrace(c.Request.Context(), ctl.log).Info("event recorded",
		zap.String("type", ev.Type()),
		zap.String("target", ev.Target.Type),
		zap.Int64("target_id", ev.Target.ID),
		zap.String("idempotency_key", key),
	)
	c.JSON(http.StatusAccepted, gin.H{"idempotency_key": key, "type": ev.Type()})
}
