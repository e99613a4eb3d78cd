package settings

import (
	"net/http"

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
	return &Controller{log: obs.Component(log, "api.settings"), uc: uc}
}

func (ctl *Controller) Register(me *gin.RouterGroup) {
	me.GET("/notification-settings", ctl.list)
	me.PUT("/notification-settings/:key", ctl.put)
	me.DELETE("/notification-settings/:key", ctl.reset)
}

func (ctl *Controller) list(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	list, err := ctl.uc.List(c.Request.Context(), uid)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

type putRequest struct {
	Value *bool `json:"value" binding:"required"`
}

func (ctl *Controller) put(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	key, err := ParseKey(c.Param("key"))
	if err != nil {
		apierr.Write(c, err)
		return
	}
	var req putRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := ctl.uc.Put(c.Request.Context(), uid, key, *req.Value); err != nil {
		apierr.Write(c, err)
		return
	}
	obs.WithTrace(c.Request.Context(), ctl.log).Info("setting stored",
		zap.Int64("uid", uid), zap.String("key", string(key)), zap.Bool("value", *req.Value))
	c.JSON(http.StatusOK, gin.H{"type": key, "value": *req.Value})
}

func (ctl *Controller) reset(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	key, err := ParseKey(c.Param("key"))
	if err != nil {
		apierr.Write(c, err)
		return
	}
	if _, err := ctl.uc.Reset(c.Request.Context(), uid, key); err != nil {
		apierr.Write(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
