package notifications

import (
	"net/http"
	"strconv"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
	"github.com/NordCoder/Restora/internal/services/api-gateway/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: obs.Component(log, "api.notifications"), uc: uc}
}

// Register mounts the per-user routes on me and the target listing on targets.
func (ctl *Controller) Register(me, targets *gin.RouterGroup) {
	me.GET("/notifications", ctl.listUnread)
	me.POST("/notifications/read-all", ctl.readAll)
	me.POST("/notifications/:id/read", ctl.read)
	targets.GET("/:type/:id/notifications", ctl.listByTarget)
}

func (ctl *Controller) listUnread(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	list, err := ctl.uc.ListUnread(c.Request.Context(), uid)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (ctl *Controller) read(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	n, err := ctl.uc.Read(c.Request.Context(), uid, id)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	obs.WithTrace(c.Request.Context(), ctl.log).Debug("notification read", zap.Int64("uid", uid), zap.Int64("id", id))
	c.JSON(http.StatusOK, n)
}

func (ctl *Controller) readAll(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	n, err := ctl.uc.ReadAll(c.Request.Context(), uid)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": n})
}

type targetQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func (ctl *Controller) listByTarget(c *gin.Context) {
	ref, err := TargetParam(c)
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	var q targetQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	list, err := ctl.uc.ListByTarget(c.Request.Context(), uid, ref, q.Limit)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// TargetParam reads the :type/:id path pair.
func TargetParam(c *gin.Context) (event.Ref, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return event.Ref{}, err
	}
	return event.Ref{ID: id, Type: c.Param("type")}, nil
}
